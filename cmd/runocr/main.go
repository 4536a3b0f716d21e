package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/screenwiper/internal/acquire"
	"github.com/joseph-ayodele/screenwiper/internal/app"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/core/ocr"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
	"github.com/joseph-ayodele/screenwiper/internal/ingest"
)

func main() {
	var (
		ocrOnly    = flag.Bool("ocr-only", false, "stop after OCR and print the recognized text")
		configPath = flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	)
	flag.Parse()

	logger := app.NewLogger(os.Getenv("LOG_LEVEL"))

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runocr [-ocr-only] <image path or URL>")
		os.Exit(2)
	}
	ref := entity.ImageRef{URL: flag.Arg(0)}
	if !strings.Contains(ref.URL, "://") {
		ref = ingest.RefForPath(ref.URL)
	}

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("config.load.failed", "error", err)
		os.Exit(1)
	}
	cfg.Acquire.AllowFileRefs = true

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = common.WithRequestID(ctx, common.NewRequestID())

	if *ocrOnly {
		acq := acquire.NewDispatcher(acquire.Config{
			Timeout:       cfg.Acquire.Timeout,
			MaxBytes:      cfg.Acquire.MaxBytes,
			AllowFileRefs: true,
			S3Region:      cfg.Acquire.S3Region,
			UserAgent:     cfg.Acquire.UserAgent,
		}, logger)
		data, err := acq.Acquire(ctx, ref)
		if err != nil {
			logger.Error("acquire failed", "image_ref", ref.String(), "error", err)
			os.Exit(1)
		}
		tess := ocr.NewTesseract(ocr.Config{
			Binary:              cfg.OCR.Binary,
			Language:            cfg.OCR.Language,
			TessdataDir:         cfg.OCR.TessdataDir,
			EnableTSVConfidence: true,
			Timeout:             cfg.OCR.Timeout,
		}, logger)
		res, err := tess.Recognize(ctx, data)
		if err != nil {
			logger.Error("ocr failed", "error", err)
			os.Exit(1)
		}
		logger.Info("ocr ok",
			"language", res.Language,
			"confidence", res.Confidence,
			"bytes", len(res.Text),
			"duration_ms", res.Duration.Milliseconds(),
		)
		_, _ = os.Stdout.WriteString(res.Text + "\n")
		return
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("app.init.failed", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	rec, err := a.Processor.ProcessImage(ctx, ref)
	if err != nil {
		logger.Error("triage failed", "image_ref", ref.String(), "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		logger.Error("encode record", "error", err)
		os.Exit(1)
	}
	logger.Info("triage ok",
		"image_ref", ref.String(),
		"category", rec.Category().String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
