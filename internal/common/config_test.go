package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.OCR.Language != "kor+eng" {
		t.Errorf("OCR.Language = %q", c.OCR.Language)
	}
	if c.Triage.DropUnnormalizedDates {
		t.Error("DropUnnormalizedDates should default to false")
	}
	if c.Pipeline.Workers != 4 {
		t.Errorf("Pipeline.Workers = %d", c.Pipeline.Workers)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screenwiper.yaml")
	yml := `
server:
  http_addr: ":7000"
pipeline:
  workers: 8
  process_timeout: 90s
triage:
  drop_unnormalized_dates: true
ner:
  provider: openai
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PIPELINE_WORKERS", "2")
	t.Setenv("HTTP_ADDR", "")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.HTTPAddr != ":7000" {
		t.Errorf("HTTPAddr = %q, want file value", c.Server.HTTPAddr)
	}
	if c.Pipeline.Workers != 2 {
		t.Errorf("Workers = %d, want env override 2", c.Pipeline.Workers)
	}
	if c.Pipeline.ProcessTimeout != 90*time.Second {
		t.Errorf("ProcessTimeout = %v", c.Pipeline.ProcessTimeout)
	}
	if !c.Triage.DropUnnormalizedDates {
		t.Error("DropUnnormalizedDates from file not applied")
	}
	if c.NER.Provider != NERProviderOpenAI {
		t.Errorf("Provider = %q", c.NER.Provider)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "google with key", mutate: func(c *Config) { c.NER.GoogleAPIKey = "k" }},
		{name: "google without key", mutate: func(c *Config) {}, wantErr: true},
		{name: "openai with key", mutate: func(c *Config) { c.NER.Provider = NERProviderOpenAI; c.NER.APIKey = "k" }},
		{name: "unknown provider", mutate: func(c *Config) { c.NER.Provider = "aws" }, wantErr: true},
		{
			name: "summarizer needs key",
			mutate: func(c *Config) {
				c.NER.GoogleAPIKey = "k"
				c.Summarizer.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			mutate: func(c *Config) {
				c.NER.GoogleAPIKey = "k"
				c.Pipeline.Workers = 0
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error %v does not wrap ErrInvalidInput", err)
			}
		})
	}
}
