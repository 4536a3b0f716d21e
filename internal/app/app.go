// Package app wires configuration into a ready-to-use triage pipeline. It is
// shared by the daemon, the batch CLI and the Lambda entry point.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/screenwiper/internal/acquire"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/core/ner"
	"github.com/joseph-ayodele/screenwiper/internal/core/ocr"
	"github.com/joseph-ayodele/screenwiper/internal/core/summarize"
	"github.com/joseph-ayodele/screenwiper/internal/core/triage"
	"github.com/joseph-ayodele/screenwiper/internal/metrics"
	"github.com/joseph-ayodele/screenwiper/internal/pipeline"
	"github.com/joseph-ayodele/screenwiper/internal/server"
)

type App struct {
	Config    *common.Config
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	OCR       *ocr.Tesseract
	NER       ner.Recognizer
	Acquirer  *acquire.Dispatcher
	Analyzer  *triage.Analyzer
	Processor *pipeline.Processor
	Service   *server.AnalyzeService
}

// New validates cfg and builds every collaborator.
func New(cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tess := ocr.NewTesseract(ocr.Config{
		Binary:              cfg.OCR.Binary,
		Language:            cfg.OCR.Language,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: true,
		Timeout:             cfg.OCR.Timeout,
	}, logger)

	recognizer, err := ner.New(cfg.NER, logger)
	if err != nil {
		return nil, fmt.Errorf("ner: %w", err)
	}

	var summarizer triage.Summarizer
	if cfg.Summarizer.Enabled {
		summarizer = summarize.NewOpenAI(summarize.Config{
			APIKey:  cfg.Summarizer.APIKey,
			BaseURL: cfg.Summarizer.BaseURL,
			Model:   cfg.Summarizer.Model,
			Timeout: cfg.Summarizer.Timeout,
		}, logger)
		logger.Info("summarizer.enabled", "model", cfg.Summarizer.Model)
	} else {
		logger.Info("summarizer.disabled")
	}

	acq := acquire.NewDispatcher(acquire.Config{
		Timeout:       cfg.Acquire.Timeout,
		MaxBytes:      cfg.Acquire.MaxBytes,
		AllowFileRefs: cfg.Acquire.AllowFileRefs,
		S3Region:      cfg.Acquire.S3Region,
		UserAgent:     cfg.Acquire.UserAgent,
	}, logger)

	analyzer := triage.NewAnalyzer(triage.Options{DropUnnormalizedDates: cfg.Triage.DropUnnormalizedDates}, summarizer, logger)

	proc := pipeline.NewProcessor(logger, acq, tess, recognizer, analyzer,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithImageTimeout(cfg.Pipeline.ProcessTimeout),
		pipeline.WithMetrics(m),
	)

	svc := server.NewAnalyzeService(proc, server.Limits{
		MaxBatchSize:  cfg.Server.MaxBatchSize,
		AllowFileRefs: cfg.Acquire.AllowFileRefs,
	}, logger)

	return &App{
		Config:    cfg,
		Registry:  reg,
		Metrics:   m,
		OCR:       tess,
		NER:       recognizer,
		Acquirer:  acq,
		Analyzer:  analyzer,
		Processor: proc,
		Service:   svc,
	}, nil
}

// NewLogger builds the JSON slog logger used by every binary. LOG_LEVEL=debug
// enables debug output.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
