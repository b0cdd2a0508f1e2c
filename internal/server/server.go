// Package server exposes the answer pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kamusis/answerhub/internal/answer"
	"github.com/kamusis/answerhub/internal/catalog"
	"github.com/kamusis/answerhub/internal/upload"
)

// Answerer runs one question through the pipeline. *answer.Service implements it.
type Answerer interface {
	Answer(ctx context.Context, question, filePath string) (answer.Outcome, error)
	Catalog() *catalog.Catalog
}

// Deployer starts a redeploy. *redeploy.Trigger implements it.
type Deployer interface {
	Start(password string) error
}

// Options configures a Server. Answerer and Uploads are required.
type Options struct {
	Answerer Answerer
	Uploads  *upload.Store
	// Deployer may be nil, in which case every redeploy is unauthorized.
	Deployer Deployer
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
	// KeepUploads leaves uploaded files on disk after the request.
	KeepUploads bool
	Logger      *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	echo *echo.Echo
	opts Options
	log  *slog.Logger
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Answerer == nil {
		return nil, errors.New("server: answerer is required")
	}
	if opts.Uploads == nil {
		return nil, errors.New("server: upload store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{echo: e, opts: opts, log: logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURIPath:   true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.POST("/", s.handleAnswer)
	e.GET("/redeploy", s.handleRedeploy)
	e.GET("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return s, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// detail is the error body shape: {"detail": "..."}.
type detail struct {
	Detail string `json:"detail"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, detail{Detail: msg})
	}
	if err != nil {
		s.log.Error("write error response", "error", err)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	cat := s.opts.Answerer.Catalog()
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"entries":     cat.Len(),
		"fingerprint": cat.Fingerprint(),
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}
