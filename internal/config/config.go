package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration read from the environment.
type Config struct {
	// Server
	Port           int           `env:"PORT" envDefault:"8000" validate:"min=1,max=65535"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10m" validate:"gt=0"`
	ServiceName    string        `env:"SERVICE_NAME" envDefault:"doc-summarizer"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760" validate:"gt=0"` // 10MB in bytes

	// Model
	ModelProvider     string `env:"MODEL_PROVIDER" envDefault:"huggingface" validate:"oneof=huggingface openai stub"` // "stub" echoes its input (for testing)
	ModelID           string `env:"MODEL_ID" envDefault:"allenai/led-large-16384" validate:"required"`
	HFAPIURL          string `env:"HF_API_URL" envDefault:"https://api-inference.huggingface.co/models" validate:"omitempty,url"`
	HFAPIToken        string `env:"HF_API_TOKEN"`
	OpenAIKey         string `env:"OPENAI_API_KEY" validate:"required_if=ModelProvider openai"`
	LLMModel          string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	TokenizerEncoding string `env:"TOKENIZER_ENCODING" envDefault:"r50k_base"` // tiktoken encoding name, or "rune"

	// Inference queue
	QueueDepth int `env:"QUEUE_DEPTH" envDefault:"32" validate:"min=1"`

	// Events
	NATSURL string `env:"NATS_URL"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"` // empty: spans go to stdout
}

var validate = validator.New()

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// Validate checks field constraints declared in struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
