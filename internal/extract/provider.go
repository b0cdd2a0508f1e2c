// Package extract turns a question into call arguments for a handler by
// asking an LLM to fill in the handler's function schema.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kamusis/answerhub/internal/config"
	"github.com/kamusis/answerhub/internal/dispatch"
)

// ErrNotConfigured is returned when no provider or API key is set.
var ErrNotConfigured = errors.New("parameter extractor is not configured")

// Extractor derives structured arguments from a question.
//
// It returns dispatch.Empty() when the model produced no arguments, and an
// error for transport failures or malformed responses.
type Extractor interface {
	Extract(ctx context.Context, question string, schema dispatch.Schema) (dispatch.Arguments, error)
}

// Config contains the resolved extractor configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// LoadConfig combines the file configuration with the API key resolved from
// the environment first, then the dotenv files.
func LoadConfig(c config.Extractor) (*Config, error) {
	apiKey, err := config.GetConfigValue(config.KeyExtractorAPIKey)
	if err != nil {
		return nil, err
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Config{
		Provider: c.Provider,
		Model:    c.Model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Timeout:  c.Timeout,
	}, nil
}

// NewFromConfig returns an extractor for cfg.Provider.
func NewFromConfig(cfg *Config) (Extractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("extractor config is nil")
	}
	switch cfg.Provider {
	case "":
		return nil, fmt.Errorf("%w (set extractor.provider)", ErrNotConfigured)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w (set %s)", ErrNotConfigured, config.KeyExtractorAPIKey)
		}
		return NewOpenAI(cfg), nil
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported extractor provider: %s", cfg.Provider)
	}
}

// Noop never extracts anything.
type Noop struct{}

// Extract always returns dispatch.Empty().
func (Noop) Extract(context.Context, string, dispatch.Schema) (dispatch.Arguments, error) {
	return dispatch.Empty(), nil
}
