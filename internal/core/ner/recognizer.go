// Package ner extracts named entities from OCR text through a remote provider.
package ner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// Recognizer is the entity-recognition collaborator.
type Recognizer interface {
	ExtractEntities(ctx context.Context, text string) ([]entity.RecognizedEntity, error)
}

// New builds the recognizer selected by cfg.Provider.
func New(cfg common.NERConfig, logger *slog.Logger) (Recognizer, error) {
	switch cfg.Provider {
	case common.NERProviderGoogle:
		return NewGoogle(GoogleConfig{
			APIKey:   cfg.GoogleAPIKey,
			Endpoint: cfg.GoogleEndpoint,
			Language: cfg.Language,
			Timeout:  cfg.Timeout,
		}, logger), nil
	case common.NERProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown ner provider %q", cfg.Provider)
	}
}
