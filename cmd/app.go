package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kamusis/answerhub/internal/answer"
	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/kamusis/answerhub/internal/config"
	"github.com/kamusis/answerhub/internal/dispatch"
	"github.com/kamusis/answerhub/internal/extract"
	"github.com/kamusis/answerhub/internal/handlers"
	"github.com/kamusis/answerhub/internal/logging"
	"github.com/kamusis/answerhub/internal/metrics"
)

// app bundles everything a command needs to answer questions.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Exporter
	registry *dispatch.Registry
	service  *answer.Service
}

// loadConfig loads the config file named by --config and applies the
// logging flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'answerhub init' first.", err)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	return cfg, nil
}

// newRegistry returns a registry holding every built-in handler.
func newRegistry() (*dispatch.Registry, error) {
	reg := dispatch.NewRegistry()
	if err := handlers.Register(reg, nil); err != nil {
		return nil, err
	}
	return reg, nil
}

// newExtractor builds the configured extractor. An unconfigured extractor
// degrades to one that never extracts, with a warning.
func newExtractor(cfg *config.Config, logger *slog.Logger) (extract.Extractor, error) {
	ec, err := extract.LoadConfig(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	ex, err := extract.NewFromConfig(ec)
	if errors.Is(err, extract.ErrNotConfigured) {
		logger.Warn("parameter extraction disabled", "reason", err.Error())
		return extract.Noop{}, nil
	}
	return ex, err
}

// newApp loads config and catalog and wires the answer service. Logs go to w.
func newApp(w io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, w)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}
	ex, err := newExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}
	exp := metrics.New()
	svc, err := answer.New(cat, answer.Options{
		Registry:  reg,
		Extractor: ex,
		Logger:    logger,
		Recorder:  exp,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, metrics: exp, registry: reg, service: svc}, nil
}
