package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/screenwiper/constants"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	OCR        OCRConfig        `yaml:"ocr"`
	NER        NERConfig        `yaml:"ner"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Acquire    AcquireConfig    `yaml:"acquire"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Triage     TriageConfig     `yaml:"triage"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr     string        `yaml:"http_addr"`
	GRPCAddr     string        `yaml:"grpc_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBatchSize int           `yaml:"max_batch_size"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Binary      string        `yaml:"binary"`
	TessdataDir string        `yaml:"tessdata_dir"`
	Language    string        `yaml:"language"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NERConfig selects and configures the entity-recognition provider.
type NERConfig struct {
	Provider       string        `yaml:"provider"` // google | openai
	GoogleAPIKey   string        `yaml:"google_api_key"`
	GoogleEndpoint string        `yaml:"google_endpoint"`
	Language       string        `yaml:"language"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	Temperature    float32       `yaml:"temperature"`
	Timeout        time.Duration `yaml:"timeout"`
}

// SummarizerConfig holds the optional miscellaneous-summary LLM settings.
type SummarizerConfig struct {
	Enabled bool          `yaml:"enabled"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AcquireConfig bounds image fetching.
type AcquireConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxBytes      int64         `yaml:"max_bytes"`
	AllowFileRefs bool          `yaml:"allow_file_refs"`
	S3Region      string        `yaml:"s3_region"`
	UserAgent     string        `yaml:"user_agent"`
}

// PipelineConfig sizes the per-batch worker pool and the watch-mode queue.
type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

type TriageConfig struct {
	DropUnnormalizedDates bool `yaml:"drop_unnormalized_dates"`
}

const (
	NERProviderGoogle = "google"
	NERProviderOpenAI = "openai"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:     ":8000",
			GRPCAddr:     ":9090",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			MaxBatchSize: 50,
		},
		OCR: OCRConfig{
			Binary:   "tesseract",
			Language: "kor+eng",
			Timeout:  60 * time.Second,
		},
		NER: NERConfig{
			Provider:       NERProviderGoogle,
			GoogleEndpoint: "https://language.googleapis.com/v1/documents:analyzeEntities",
			Language:       "ko",
			Model:          "gpt-4o-mini",
			Timeout:        45 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Acquire: AcquireConfig{
			Timeout:   20 * time.Second,
			MaxBytes:  constants.MaxImageBytesDefault,
			UserAgent: "screenwiper/1.0",
		},
		Pipeline: PipelineConfig{
			Workers:        4,
			QueueSize:      64,
			ProcessTimeout: 2 * time.Minute,
		},
	}
}

// LoadConfig loads configuration from the YAML file named by CONFIG_FILE (if any)
// and then from environment variables. Environment values win.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load reads defaults, overlays the YAML file at path when non-empty, then applies the environment.
func Load(path string) (*Config, error) {
	c := defaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse "+path, err)
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.MaxBatchSize = getEnvAsInt("MAX_BATCH_SIZE", c.Server.MaxBatchSize)

	c.OCR.Binary = getEnv("TESSERACT_BIN", c.OCR.Binary)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.Language = getEnv("OCR_LANG", c.OCR.Language)
	c.OCR.Timeout = getEnvAsDuration("OCR_TIMEOUT", c.OCR.Timeout)

	c.NER.Provider = strings.ToLower(getEnv("NER_PROVIDER", c.NER.Provider))
	c.NER.GoogleAPIKey = getEnv("GOOGLE_API_KEY", c.NER.GoogleAPIKey)
	c.NER.GoogleEndpoint = getEnv("GOOGLE_NL_ENDPOINT", c.NER.GoogleEndpoint)
	c.NER.Language = getEnv("NER_LANGUAGE", c.NER.Language)
	c.NER.Model = getEnv("OPENAI_MODEL", c.NER.Model)
	c.NER.APIKey = getEnv("OPENAI_API_KEY", c.NER.APIKey)
	c.NER.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.NER.Temperature)
	c.NER.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.NER.Timeout)

	c.Summarizer.Enabled = getEnvAsBool("SUMMARIZER_ENABLED", c.Summarizer.Enabled)
	c.Summarizer.Model = getEnv("SUMMARIZER_MODEL", c.Summarizer.Model)
	c.Summarizer.APIKey = getEnv("OPENAI_API_KEY", c.Summarizer.APIKey)
	c.Summarizer.BaseURL = getEnv("OPENAI_BASE_URL", c.Summarizer.BaseURL)
	c.Summarizer.Timeout = getEnvAsDuration("SUMMARIZER_TIMEOUT", c.Summarizer.Timeout)

	c.Acquire.Timeout = getEnvAsDuration("FETCH_TIMEOUT", c.Acquire.Timeout)
	c.Acquire.MaxBytes = int64(getEnvAsInt("MAX_IMAGE_BYTES", int(c.Acquire.MaxBytes)))
	c.Acquire.AllowFileRefs = getEnvAsBool("ALLOW_FILE_REFS", c.Acquire.AllowFileRefs)
	c.Acquire.S3Region = getEnv("AWS_REGION", c.Acquire.S3Region)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)
	c.Pipeline.QueueSize = getEnvAsInt("PIPELINE_QUEUE_SIZE", c.Pipeline.QueueSize)
	c.Pipeline.ProcessTimeout = getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", c.Pipeline.ProcessTimeout)

	c.Triage.DropUnnormalizedDates = getEnvAsBool("TRIAGE_DROP_UNNORMALIZED_DATES", c.Triage.DropUnnormalizedDates)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.NER.Provider {
	case NERProviderGoogle:
		if c.NER.GoogleAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GOOGLE_API_KEY is required for the google NER provider", ErrInvalidInput)
		}
	case NERProviderOpenAI:
		if c.NER.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the openai NER provider", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown NER_PROVIDER %q", c.NER.Provider), ErrInvalidInput)
	}
	if c.Summarizer.Enabled && c.Summarizer.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required when SUMMARIZER_ENABLED", ErrInvalidInput)
	}
	if c.Pipeline.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Acquire.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_IMAGE_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}
