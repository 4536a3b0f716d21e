// Package server exposes the screenshot triage pipeline over HTTP and gRPC.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

const WelcomeMessage = "Welcome to the OCR API"

// BatchProcessor is satisfied by *pipeline.Processor.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, refs []entity.ImageRef) []entity.ImageResult
}

// AnalyzeRequest is the body of POST /analyze_images.
type AnalyzeRequest struct {
	ImageURLs []string `json:"imageUrls"`
}

// AnalyzeResponse wraps per-image results, in request order.
type AnalyzeResponse struct {
	Data []entity.ImageResult `json:"data"`
}

// Upload is one multipart file. Err is set when the part could not be read;
// the slot is then reported as a failed image without being processed.
type Upload struct {
	Filename string
	Data     []byte
	Err      error
}

type Limits struct {
	MaxBatchSize  int
	AllowFileRefs bool
}

type AnalyzeService struct {
	proc   BatchProcessor
	limits Limits
	logger *slog.Logger
}

func NewAnalyzeService(proc BatchProcessor, limits Limits, logger *slog.Logger) *AnalyzeService {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxBatchSize <= 0 {
		limits.MaxBatchSize = 50
	}
	return &AnalyzeService{proc: proc, limits: limits, logger: logger}
}

// AnalyzeURLs validates the references and triages them. Only an invalid request
// fails as a whole; per-image failures are carried in the results.
func (s *AnalyzeService) AnalyzeURLs(ctx context.Context, urls []string) ([]entity.ImageResult, error) {
	logger := common.LoggerFromContext(ctx, s.logger)
	v := common.ValidateImageURLs(urls, s.limits.MaxBatchSize, s.limits.AllowFileRefs)
	if v.HasErrors() {
		logger.Warn("analyze.request.invalid", "error", v.ErrorMessage())
		return nil, common.NewAppError("INVALID_REQUEST", v.ErrorMessage(), v.Error())
	}

	refs := make([]entity.ImageRef, len(urls))
	for i, u := range urls {
		refs[i] = entity.ImageRef{URL: u}
	}
	return s.run(ctx, logger, refs), nil
}

// AnalyzeUploads triages uploaded files. Unreadable parts keep their slot as failures.
func (s *AnalyzeService) AnalyzeUploads(ctx context.Context, uploads []Upload) ([]entity.ImageResult, error) {
	logger := common.LoggerFromContext(ctx, s.logger)
	if len(uploads) == 0 {
		return nil, common.NewAppError("INVALID_REQUEST", "files is required", common.ErrInvalidInput)
	}
	if len(uploads) > s.limits.MaxBatchSize {
		msg := fmt.Sprintf("files must contain at most %d items", s.limits.MaxBatchSize)
		return nil, common.NewAppError("INVALID_REQUEST", msg, common.ErrInvalidInput)
	}

	out := make([]entity.ImageResult, len(uploads))
	var refs []entity.ImageRef
	var slots []int
	for i, u := range uploads {
		ref := entity.ImageRef{Filename: u.Filename, Data: u.Data}
		if ref.Data == nil {
			ref.Data = []byte{}
		}
		if u.Err != nil {
			out[i] = entity.ImageResult{Ref: ref, Err: common.NewAcquisitionError(u.Filename, u.Err)}
			continue
		}
		refs = append(refs, ref)
		slots = append(slots, i)
	}
	for j, r := range s.run(ctx, logger, refs) {
		out[slots[j]] = r
	}
	return out, nil
}

func (s *AnalyzeService) run(ctx context.Context, logger *slog.Logger, refs []entity.ImageRef) []entity.ImageResult {
	if len(refs) == 0 {
		return nil
	}
	start := time.Now()
	results := s.proc.ProcessBatch(ctx, refs)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("analyze.batch.done",
		"images", len(refs),
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results
}

// IsInvalidRequest reports whether err rejects the whole request.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, common.ErrInvalidInput) || errors.Is(err, common.ErrValidation)
}
