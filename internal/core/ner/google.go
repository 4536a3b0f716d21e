package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

const defaultGoogleEndpoint = "https://language.googleapis.com/v1/documents:analyzeEntities"

// GoogleConfig configures the Cloud Natural Language analyzeEntities client.
type GoogleConfig struct {
	APIKey   string
	Endpoint string
	Language string // BCP-47 hint; empty lets the API detect it
	Timeout  time.Duration
}

// Google calls documents:analyzeEntities over REST.
type Google struct {
	cfg    GoogleConfig
	http   *http.Client
	logger *slog.Logger
}

func NewGoogle(cfg GoogleConfig, logger *slog.Logger) *Google {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGoogleEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Google{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

type googleDocument struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

type googleRequest struct {
	Document     googleDocument `json:"document"`
	EncodingType string         `json:"encodingType"`
}

type googleResponse struct {
	Entities []struct {
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		Salience float64 `json:"salience"`
	} `json:"entities"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ExtractEntities returns entities in provider order. A provider error payload
// or transport failure is reported as a recognition error.
func (g *Google) ExtractEntities(ctx context.Context, text string) ([]entity.RecognizedEntity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	start := time.Now()
	body := googleRequest{
		Document:     googleDocument{Type: "PLAIN_TEXT", Content: text, Language: g.cfg.Language},
		EncodingType: "UTF8",
	}
	endpoint := g.cfg.Endpoint
	if g.cfg.APIKey != "" {
		endpoint += "?key=" + url.QueryEscape(g.cfg.APIKey)
	}

	raw, status, httpErr := SendJSON(ctx, g.http, endpoint, body, nil, g.logger)

	var resp googleResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &resp); err != nil && httpErr == nil {
			return nil, common.NewRecognitionError(constants.StageNER, fmt.Errorf("decode google response: %w", err))
		}
	}
	if resp.Error != nil {
		g.logger.Error("ner.google.provider_error", "status", status, "code", resp.Error.Status, "message", resp.Error.Message)
		return nil, common.NewRecognitionError(constants.StageNER, errors.New(resp.Error.Message))
	}
	if httpErr != nil {
		return nil, common.NewRecognitionError(constants.StageNER, httpErr)
	}

	out := make([]entity.RecognizedEntity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		out = append(out, entity.RecognizedEntity{Name: e.Name, Type: constants.ParseEntityType(e.Type)})
	}
	g.logger.Info("ner.google.ok", "entities", len(out), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}
