package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// OpenAIConfig for the chat-completions entity extractor.
type OpenAIConfig struct {
	APIKey          string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL         string        // default https://api.openai.com/v1
	Model           string        // e.g., "gpt-4o-mini"
	Temperature     float32       // 0..2
	Timeout         time.Duration // http client timeout
	StrictSchema    bool          // skip the lenient sanitize retry
	MaxPromptLength int
}

// OpenAI asks a chat model for entities in JSON mode and validates the answer.
type OpenAI struct {
	cfg    OpenAIConfig
	http   *http.Client
	logger *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxPromptLength <= 0 {
		cfg.MaxPromptLength = 4000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

func (c *OpenAI) ExtractEntities(ctx context.Context, text string) ([]entity.RecognizedEntity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	start := time.Now()
	schema := EntitiesJSONSchema()

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt()},
			{"role": "user", "content": userPrompt(text, c.cfg.MaxPromptLength)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, status, httpErr := SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if httpErr != nil {
		if msg := providerErrorMessage(raw); msg != "" {
			c.logger.Error("ner.openai.provider_error", "status", status, "message", msg)
			return nil, common.NewRecognitionError(constants.StageNER, errors.New(msg))
		}
		return nil, common.NewRecognitionError(constants.StageNER, httpErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, common.NewRecognitionError(constants.StageNER, fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		return nil, common.NewRecognitionError(constants.StageNER, errors.New("no choices in openai response"))
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := ValidateJSONAgainstSchema(schema, content); err != nil {
		if c.cfg.StrictSchema {
			c.logger.Error("ner.openai.schema_validation_failed", "error", err)
			return nil, common.NewRecognitionError(constants.StageNER, err)
		}
		cleaned, dropped, sErr := SanitizeEntities(content)
		if sErr != nil {
			return nil, common.NewRecognitionError(constants.StageNER, sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("ner.openai.schema_validation_failed", "error", vErr)
			return nil, common.NewRecognitionError(constants.StageNER, vErr)
		}
		c.logger.Warn("ner.openai.lenient_sanitize_applied", "dropped", dropped)
		content = cleaned
	}

	var doc struct {
		Entities []entity.RecognizedEntity `json:"entities"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, common.NewRecognitionError(constants.StageNER, fmt.Errorf("unmarshal entities: %w", err))
	}
	for i := range doc.Entities {
		doc.Entities[i].Type = constants.ParseEntityType(string(doc.Entities[i].Type))
	}

	c.logger.Info("ner.openai.ok",
		"model", c.cfg.Model,
		"entities", len(doc.Entities),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc.Entities, nil
}

func systemPrompt() string {
	return strings.Join([]string{
		"You extract named entities from text recognized in a phone screenshot (Korean or English).",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Types: ADDRESS for street addresses, ORGANIZATION for store, venue or company names,",
		"DATE for calendar dates or date ranges exactly as written, OTHER for anything else worth keeping.",
		"Keep the entity text verbatim and in reading order. Do not invent entities.",
	}, " ")
}

func userPrompt(text string, max int) string {
	r := []rune(text)
	if len(r) > max {
		text = string(r[:max])
	}
	return "Screenshot text:\n" + text
}

// providerErrorMessage extracts {"error":{"message":...}} from a provider body.
func providerErrorMessage(raw []byte) string {
	var p struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil || p.Error == nil {
		return ""
	}
	return p.Error.Message
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
