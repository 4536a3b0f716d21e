package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/core/ocr"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// TextRecognizer is the OCR collaborator.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// confidenceRecognizer is implemented by recognizers that also estimate confidence.
type confidenceRecognizer interface {
	Recognize(ctx context.Context, image []byte) (ocr.Result, error)
}

// EntityRecognizer is the NER collaborator.
type EntityRecognizer interface {
	ExtractEntities(ctx context.Context, text string) ([]entity.RecognizedEntity, error)
}

// OCRStage turns image bytes into text.
type OCRStage struct {
	Recognizer TextRecognizer
}

// Run returns the recognized text and, when available, a confidence estimate (-1 otherwise).
func (s *OCRStage) Run(ctx context.Context, image []byte) (string, float32, error) {
	if cr, ok := s.Recognizer.(confidenceRecognizer); ok {
		res, err := cr.Recognize(ctx, image)
		if err != nil {
			return "", 0, asRecognitionError(constants.StageOCR, err)
		}
		return res.Text, res.Confidence, nil
	}
	text, err := s.Recognizer.RecognizeText(ctx, image)
	if err != nil {
		return "", 0, asRecognitionError(constants.StageOCR, err)
	}
	return text, -1, nil
}

// NERStage turns text into recognized entities.
type NERStage struct {
	Recognizer EntityRecognizer
}

func (s *NERStage) Run(ctx context.Context, text string) ([]entity.RecognizedEntity, error) {
	ents, err := s.Recognizer.ExtractEntities(ctx, text)
	if err != nil {
		return nil, asRecognitionError(constants.StageNER, err)
	}
	return ents, nil
}

func asRecognitionError(stage constants.Stage, err error) error {
	if errors.Is(err, common.ErrRecognition) {
		return err
	}
	return common.NewRecognitionError(stage, err)
}

// timed runs fn and reports its duration to observe.
func timed(observe func(time.Duration), fn func()) {
	start := time.Now()
	fn()
	observe(time.Since(start))
}
