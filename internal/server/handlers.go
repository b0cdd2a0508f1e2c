package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kamusis/answerhub/internal/dispatch"
	"github.com/kamusis/answerhub/internal/redeploy"
	"github.com/kamusis/answerhub/internal/upload"
)

// Response headers carrying the outcome tags of an answer.
const (
	HeaderMatchKey   = "X-Match-Key"
	HeaderExtraction = "X-Extraction"
	HeaderDispatch   = "X-Dispatch"
)

func (s *Server) handleAnswer(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form: "+err.Error())
	}
	if _, ok := form["question"]; !ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "field required: question")
	}
	question := form.Get("question")

	var filePath string
	fh, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file: "+err.Error())
	default:
		src, err := fh.Open()
		if err != nil {
			return err
		}
		f, err := s.opts.Uploads.Save(fh.Filename, src)
		_ = src.Close()
		if errors.Is(err, upload.ErrBadFilename) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err != nil {
			return err
		}
		if !s.opts.KeepUploads {
			defer func() {
				if err := s.opts.Uploads.Remove(f); err != nil {
					s.log.Warn("remove upload", "dir", f.Dir, "error", err)
				}
			}()
		}
		filePath = f.Path
	}

	out, err := s.opts.Answerer.Answer(c.Request().Context(), question, filePath)
	h := c.Response().Header()
	if out.Match.Key != "" {
		h.Set(HeaderMatchKey, out.Match.Key)
		h.Set(HeaderExtraction, string(out.Extraction))
		h.Set(HeaderDispatch, string(out.Dispatch))
	}
	if err != nil {
		var he *dispatch.HandlerExecutionError
		if errors.As(err, &he) {
			return echo.NewHTTPError(http.StatusInternalServerError, he.Message()).SetInternal(err)
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"answer": out.Answer})
}

func (s *Server) handleRedeploy(c echo.Context) error {
	if _, ok := c.QueryParams()["password"]; !ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "field required: password")
	}
	if s.opts.Deployer == nil {
		return echo.NewHTTPError(http.StatusForbidden, "Unauthorized")
	}
	err := s.opts.Deployer.Start(c.QueryParam("password"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"message": "Redeployment triggered!"})
	case errors.Is(err, redeploy.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "Unauthorized")
	case errors.Is(err, redeploy.ErrInProgress):
		return echo.NewHTTPError(http.StatusConflict, "Redeployment already in progress")
	case errors.Is(err, redeploy.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many redeployments, try again later")
	default:
		return err
	}
}
