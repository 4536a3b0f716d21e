package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

const (
	placeSummaryEntries  = 3
	miscSummarySentences = 1
)

// Summarizer produces a short extractive summary of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, sentences int) (string, error)
}

// SynthesisInput carries everything the synthesizer needs for one screenshot.
type SynthesisInput struct {
	Category constants.CategoryID
	Partitioned
	Text   string
	Events []entity.ExtractedEvent
	Photo  entity.PhotoRef
}

// Synthesizer assembles the category-specific record. It never fails:
// summarizer errors are mapped to constants.SummaryUnavailable.
type Synthesizer struct {
	// Summarizer is optional. When nil, miscellaneous summaries join the residual entities.
	Summarizer Summarizer
	Logger     *slog.Logger
}

func NewSynthesizer(s Summarizer, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{Summarizer: s, Logger: logger}
}

func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) entity.Record {
	switch in.Category {
	case constants.CategoryPlace:
		return s.place(in)
	case constants.CategoryEvent:
		return s.event(in)
	default:
		return s.misc(ctx, in)
	}
}

func (s *Synthesizer) place(in SynthesisInput) *entity.PlaceRecord {
	title := constants.UnknownPlaceTitle
	switch {
	case in.HasStore:
		title = in.StoreName
	case len(in.Addresses) > 0:
		title = in.Addresses[0]
	}
	address := ""
	if len(in.Addresses) > 0 {
		address = in.Addresses[0]
	}
	others := in.Others
	if len(others) > placeSummaryEntries {
		others = others[:placeSummaryEntries]
	}
	return &entity.PlaceRecord{
		CategoryID:     constants.CategoryPlace,
		Title:          title,
		Address:        address,
		OperatingHours: ExtractOperatingHours(in.Text),
		Summary:        strings.Join(others, ", "),
		PhotoRef:       in.Photo,
	}
}

func (s *Synthesizer) event(in SynthesisInput) *entity.EventRecord {
	list := make([]entity.ExtractedEvent, len(in.Events))
	copy(list, in.Events)
	return &entity.EventRecord{
		CategoryID: constants.CategoryEvent,
		Title:      firstOr(in.Others, constants.UnknownEventTitle),
		List:       list,
		PhotoRef:   in.Photo,
	}
}

func (s *Synthesizer) misc(ctx context.Context, in SynthesisInput) *entity.MiscRecord {
	summary := strings.Join(in.Others, ", ")
	if s.Summarizer != nil {
		summary = s.summarize(ctx, in.Text)
	}
	return &entity.MiscRecord{
		CategoryID: constants.CategoryMiscellaneous,
		Title:      firstOr(in.Others, constants.MiscellaneousTitle),
		Summary:    summary,
		PhotoRef:   in.Photo,
	}
}

func (s *Synthesizer) summarize(ctx context.Context, text string) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("triage.summarize.panic", "panic", fmt.Sprint(r))
			summary = constants.SummaryUnavailable
		}
	}()
	out, err := s.Summarizer.Summarize(ctx, text, miscSummarySentences)
	if err != nil {
		s.Logger.Warn("triage.summarize.failed", "error", err)
		return constants.SummaryUnavailable
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return constants.SummaryUnavailable
	}
	return out
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 {
		return list[0]
	}
	return fallback
}
