// Package pipeline runs acquisition, OCR, entity recognition and triage per screenshot.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/acquire"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/core/triage"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
	"github.com/joseph-ayodele/screenwiper/internal/metrics"
)

// Processor coordinates acquire → OCR → NER → triage for one image, and fans
// batches out over a bounded number of goroutines.
type Processor struct {
	logger   *slog.Logger
	acquirer acquire.Acquirer
	ocr      *OCRStage
	ner      *NERStage
	analyzer *triage.Analyzer
	metrics  *metrics.Metrics
	workers  int
	timeout  time.Duration
}

type Option func(*Processor)

func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithImageTimeout bounds the whole per-image pipeline.
func WithImageTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func NewProcessor(
	logger *slog.Logger,
	acquirer acquire.Acquirer,
	ocr TextRecognizer,
	ner EntityRecognizer,
	analyzer *triage.Analyzer,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if analyzer == nil {
		analyzer = triage.NewAnalyzer(triage.Options{}, nil, logger)
	}
	p := &Processor{
		logger:   logger,
		acquirer: acquirer,
		ocr:      &OCRStage{Recognizer: ocr},
		ner:      &NERStage{Recognizer: ner},
		analyzer: analyzer,
		workers:  4,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessImage runs the full pipeline for ref. Errors are acquisition or
// recognition errors from the failing stage.
func (p *Processor) ProcessImage(ctx context.Context, ref entity.ImageRef) (entity.Record, error) {
	ctx, cancel := common.WithTimeout(ctx, p.timeout)
	defer cancel()
	logger := common.LoggerFromContext(ctx, p.logger).With("image_ref", ref.String())
	start := time.Now()

	var (
		image []byte
		err   error
	)
	timed(p.observe(constants.StageAcquire), func() { image, err = p.acquirer.Acquire(ctx, ref) })
	if err != nil {
		if !errors.Is(err, common.ErrAcquisition) {
			err = common.NewAcquisitionError(ref.String(), err)
		}
		return nil, p.fail(logger, constants.StageAcquire, err)
	}

	var (
		text string
		conf float32
	)
	timed(p.observe(constants.StageOCR), func() { text, conf, err = p.ocr.Run(ctx, image) })
	if err != nil {
		return nil, p.fail(logger, constants.StageOCR, err)
	}
	if conf >= 0 {
		p.metrics.ObserveOCRConfidence(conf)
	}

	var ents []entity.RecognizedEntity
	timed(p.observe(constants.StageNER), func() { ents, err = p.ner.Run(ctx, text) })
	if err != nil {
		return nil, p.fail(logger, constants.StageNER, err)
	}

	var rec entity.Record
	timed(p.observe(constants.StageTriage), func() { rec = p.analyzer.Analyze(ctx, text, ents, ref.PhotoRef()) })
	p.metrics.RecordProcessed(rec.Category())

	logger.Info("pipeline.image.ok",
		"category", rec.Category().String(),
		"entities", len(ents),
		"text_chars", len([]rune(text)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// ProcessBatch processes refs concurrently and returns one result per ref in input order.
// A failing image never aborts the others.
func (p *Processor) ProcessBatch(ctx context.Context, refs []entity.ImageRef) []entity.ImageResult {
	results := make([]entity.ImageResult, len(refs))
	p.metrics.ObserveBatch(len(refs))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			rec, err := p.ProcessImage(ctx, ref)
			results[i] = entity.ImageResult{Ref: ref, Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Processor) fail(logger *slog.Logger, stage constants.Stage, err error) error {
	p.metrics.RecordFailure(stage)
	logger.Error("pipeline."+string(stage)+".failed", "error", err)
	return err
}

func (p *Processor) observe(stage constants.Stage) func(time.Duration) {
	return func(d time.Duration) { p.metrics.ObserveStage(stage, d) }
}
