// Package answer runs a question through matching, argument extraction and
// dispatch.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/kamusis/answerhub/internal/dispatch"
	"github.com/kamusis/answerhub/internal/extract"
	"github.com/kamusis/answerhub/internal/match"
)

// Recorder receives pipeline measurements. *metrics.Exporter implements it.
type Recorder interface {
	ObserveRequest(status string, elapsed time.Duration)
	ObserveMatch(score float64)
	ObserveExtraction(status string)
	SetCatalogSize(n int)
}

// Options configures a Service. Registry and Extractor are required.
type Options struct {
	Registry  *dispatch.Registry
	Extractor extract.Extractor
	Engine    *dispatch.Engine
	Logger    *slog.Logger
	Recorder  Recorder
}

// Service answers questions against the active catalog. The catalog and its
// matcher are swapped as one unit, so concurrent requests see either the old
// or the new catalog.
type Service struct {
	current   atomic.Pointer[match.Matcher]
	registry  *dispatch.Registry
	extractor extract.Extractor
	engine    *dispatch.Engine
	logger    *slog.Logger
	recorder  Recorder
}

// New builds the matcher for cat and returns a service using it.
func New(cat *catalog.Catalog, opts Options) (*Service, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("answer: registry is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("answer: extractor is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Engine == nil {
		var obs dispatch.Observer
		if o, ok := opts.Recorder.(dispatch.Observer); ok {
			obs = o
		}
		opts.Engine = dispatch.NewEngine(opts.Logger, obs)
	}
	s := &Service{
		registry:  opts.Registry,
		extractor: opts.Extractor,
		engine:    opts.Engine,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
	}
	if err := s.Swap(cat); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the active catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.current.Load().Catalog()
}

// Swap builds a matcher for cat and makes it active.
func (s *Service) Swap(cat *catalog.Catalog) error {
	m, err := match.New(cat)
	if err != nil {
		return err
	}
	s.current.Store(m)
	if s.recorder != nil {
		s.recorder.SetCatalogSize(cat.Len())
	}
	return nil
}

// Reload loads the catalog at path and swaps it in. It reports false when
// the dataset is unchanged. On error the active catalog stays in place.
func (s *Service) Reload(path string) (bool, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return false, err
	}
	if cur := s.current.Load(); cur != nil && cur.Catalog().Fingerprint() == cat.Fingerprint() {
		return false, nil
	}
	if err := s.Swap(cat); err != nil {
		return false, err
	}
	s.logger.Info("catalog reloaded", "path", path, "entries", cat.Len(), "fingerprint", cat.Fingerprint())
	return true, nil
}

// Answer matches question to a handler, extracts its arguments and invokes
// it with filePath (empty when nothing was uploaded).
//
// Unknown handlers and extraction failures degrade and are tagged on the
// Outcome. Only an empty catalog or a *dispatch.HandlerExecutionError is
// returned as an error.
func (s *Service) Answer(ctx context.Context, question, filePath string) (Outcome, error) {
	start := time.Now()
	out, err := s.answer(ctx, question, filePath)
	if s.recorder != nil {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case out.Dispatch == DispatchFallback:
			status = "fallback"
		}
		s.recorder.ObserveRequest(status, time.Since(start))
	}
	return out, err
}

func (s *Service) answer(ctx context.Context, question, filePath string) (Outcome, error) {
	m := s.current.Load()
	res, err := m.Match(question)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Match: res, Extraction: ExtractionSkipped, Dispatch: DispatchInvoked}
	if s.recorder != nil {
		s.recorder.ObserveMatch(res.Score)
	}
	log := s.logger.With("key", res.Key, "handler", res.Handler, "score", res.Score)

	h, err := s.registry.Resolve(res.Handler)
	if errors.Is(err, dispatch.ErrUnknownHandler) {
		log.Warn("no handler registered, answering with fallback")
		h = s.registry.Fallback()
		out.Dispatch = DispatchFallback
	} else if err != nil {
		return out, err
	}
	out.Handler = h.Key

	args := dispatch.Empty()
	if out.Dispatch == DispatchInvoked && h.Arity() > 0 {
		args, out.Extraction, out.ExtractionErr = s.extract(ctx, question, h.Schema())
		if out.ExtractionErr != nil {
			log.Warn("argument extraction failed, continuing without arguments", "error", out.ExtractionErr)
		}
	}
	if s.recorder != nil {
		s.recorder.ObserveExtraction(string(out.Extraction))
	}
	log.Debug("dispatching", "extraction", out.Extraction, "args", args.String(), "file", filePath != "")

	out.Answer, err = s.engine.Invoke(ctx, h, args, filePath)
	if err != nil {
		return out, err
	}
	return out, nil
}

func (s *Service) extract(ctx context.Context, question string, schema dispatch.Schema) (dispatch.Arguments, ExtractionStatus, error) {
	args, err := s.extractor.Extract(ctx, question, schema)
	if err != nil {
		return dispatch.Empty(), ExtractionFailed, err
	}
	if args.Kind() == dispatch.KindEmpty {
		return args, ExtractionNone, nil
	}
	return args, ExtractionExtracted, nil
}
