// Package triage turns OCR text plus recognized entities into a categorized
// screenshot record. Everything here is pure and synchronous apart from the
// injected Summarizer; one Analyzer is safe to share across goroutines.
package triage

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// Options tunes the extraction heuristics.
type Options struct {
	DropUnnormalizedDates bool
}

type Analyzer struct {
	events EventExtractor
	synth  *Synthesizer
	logger *slog.Logger
}

func NewAnalyzer(opts Options, summarizer Summarizer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		events: EventExtractor{DropUnnormalizedDates: opts.DropUnnormalizedDates},
		synth:  NewSynthesizer(summarizer, logger),
		logger: logger,
	}
}

// Analyze partitions entities, extracts events, classifies and synthesizes the record.
func (a *Analyzer) Analyze(ctx context.Context, text string, entities []entity.RecognizedEntity, photo entity.PhotoRef) entity.Record {
	parts := Partition(entities)
	events := a.events.Extract(entities, text)
	category := Classify(parts.Addresses, events)

	a.logger.Debug("triage.classified",
		"category", category.String(),
		"addresses", len(parts.Addresses),
		"events", len(events),
		"others", len(parts.Others),
		"has_store", parts.HasStore,
	)

	return a.synth.Synthesize(ctx, SynthesisInput{
		Category:    category,
		Partitioned: parts,
		Text:        text,
		Events:      events,
		Photo:       photo,
	})
}
