// Package ocr recognizes text in screenshot images with the tesseract CLI.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// ErrEmptyImage is returned when no image bytes were supplied.
var ErrEmptyImage = errors.New("ocr: empty image")

type Config struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "kor+eng"
	TessdataDir string

	PSM int // page segmentation mode; 0 keeps the tesseract default
	OEM int

	// EnableTSVConfidence runs a second TSV pass to average per-word confidence.
	EnableTSVConfidence bool
	Timeout             time.Duration
	TempDir             string
}

// Result is one recognition pass over an image.
type Result struct {
	Text       string
	Confidence float32
	Language   string
	Duration   time.Duration
}

// Tesseract runs the tesseract CLI over in-memory image bytes.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "kor+eng"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}, logger: logger}
}

// RecognizeText returns the normalized text of image; empty when nothing was detected.
func (t *Tesseract) RecognizeText(ctx context.Context, image []byte) (string, error) {
	res, err := t.Recognize(ctx, image)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Recognize is RecognizeText plus a blended confidence estimate.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrEmptyImage
	}
	start := time.Now()
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	path, cleanup, err := t.spool(image)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, t.logger, t.args(path)...)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	text := Normalize(string(out))

	var tsvConf float32
	if t.cfg.EnableTSVConfidence && text != "" {
		tsv, _, err := t.runner.Run(ctx, t.cfg.Binary, t.logger, append(t.args(path), "tsv")...)
		if err != nil {
			t.logger.Warn("ocr.tsv.failed", "error", err)
		} else {
			tsvConf = meanTSVConfidence(string(tsv))
		}
	}

	res := Result{
		Text:       text,
		Confidence: blend(tsvConf, heuristicConfidence(text)),
		Language:   t.cfg.Language,
		Duration:   time.Since(start),
	}
	if text == "" {
		res.Confidence = 0
	}
	t.logger.Debug("ocr.recognize.ok",
		"chars", len([]rune(text)),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// args builds: tesseract <file> stdout -l <lang> [--psm N] [--oem N] [--tessdata-dir D]
func (t *Tesseract) args(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

// spool writes image to a temp file since tesseract reads from a path.
func (t *Tesseract) spool(image []byte) (string, func(), error) {
	f, err := os.CreateTemp(t.cfg.TempDir, "screenwiper-ocr-*")
	if err != nil {
		return "", nil, fmt.Errorf("ocr: create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(image); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("ocr: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("ocr: close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
