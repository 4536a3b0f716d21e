package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/joseph-ayodele/screenwiper/internal/common"
)

func loadConfig(t *testing.T, env map[string]string) *common.Config {
	t.Helper()
	t.Setenv("NER_PROVIDER", "google")
	t.Setenv("SUMMARIZER_ENABLED", "false")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := common.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"GOOGLE_API_KEY": "test-key"})
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Processor == nil || a.Service == nil || a.Registry == nil || a.NER == nil {
		t.Fatalf("incomplete app: %+v", a)
	}
	if _, err := a.Registry.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"GOOGLE_API_KEY": ""})
	_, err := New(cfg, nil)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	if l := NewLogger("debug"); !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	if l := NewLogger("bogus"); l.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}
