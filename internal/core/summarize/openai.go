// Package summarize produces short extractive summaries of screenshot text with a chat model.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrNoChoices is returned when the model answered with no completion.
var ErrNoChoices = errors.New("summarize: no response choices")

type Config struct {
	APIKey      string
	BaseURL     string // empty keeps the go-openai default
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxInput    int // runes of text sent to the model
}

// OpenAI asks a chat model to quote the most representative sentences of a text.
type OpenAI struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.MaxInput <= 0 {
		cfg.MaxInput = 4000
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), cfg: cfg, logger: logger}
}

// Summarize returns up to sentences sentences copied from text.
func (o *OpenAI) Summarize(ctx context.Context, text string, sentences int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if sentences < 1 {
		sentences = 1
	}
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(sentences)},
			{Role: openai.ChatMessageRoleUser, Content: clip(text, o.cfg.MaxInput)},
		},
	})
	if err != nil {
		o.logger.Warn("summarize.openai.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	o.logger.Debug("summarize.openai.ok",
		"model", o.cfg.Model,
		"tokens", resp.Usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func systemPrompt(sentences int) string {
	unit := "sentence"
	if sentences > 1 {
		unit = "sentences"
	}
	return fmt.Sprintf("Select the %d most representative %s from the user's text and return them verbatim, "+
		"in their original language, with no commentary, quotes or numbering.", sentences, unit)
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
