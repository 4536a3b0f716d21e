package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
)

type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxUploadBytes caps a single multipart file.
	MaxUploadBytes int64
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

type HTTPServer struct {
	e      *echo.Echo
	svc    *AnalyzeService
	cfg    HTTPConfig
	logger *slog.Logger
}

func NewHTTPServer(svc *AnalyzeService, cfg HTTPConfig, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = constants.MaxImageBytesDefault
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	s := &HTTPServer{e: e, svc: svc, cfg: cfg, logger: logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			ctx := common.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"elapsed_ms", v.Latency.Milliseconds(),
				"req_id", common.RequestIDFromContext(c.Request().Context()),
			}
			if v.Error != nil {
				logger.Warn("http.request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("http.request", attrs...)
			return nil
		},
	}))

	e.GET("/", s.handleWelcome)
	e.POST("/analyze_images", s.handleAnalyzeImages)
	e.POST("/analyze_images_local", s.handleAnalyzeLocal)
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Handler exposes the router, mainly for tests and the Lambda adapter.
func (s *HTTPServer) Handler() http.Handler { return s.e }

func (s *HTTPServer) Start(addr string) error {
	s.logger.Info("http.listen", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *HTTPServer) handleWelcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (s *HTTPServer) handleAnalyzeImages(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be JSON with imageUrls")
	}
	results, err := s.svc.AnalyzeURLs(c.Request().Context(), req.ImageURLs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AnalyzeResponse{Data: results})
}

func (s *HTTPServer) handleAnalyzeLocal(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form with files is required")
	}
	files := form.File["files"]
	uploads := make([]Upload, len(files))
	for i, fh := range files {
		data, err := readUpload(fh, s.cfg.MaxUploadBytes)
		uploads[i] = Upload{Filename: fh.Filename, Data: data, Err: err}
	}
	results, err := s.svc.AnalyzeUploads(c.Request().Context(), uploads)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AnalyzeResponse{Data: results})
}

func readUpload(fh *multipart.FileHeader, max int64) ([]byte, error) {
	if fh.Size > max {
		return nil, fmt.Errorf("file exceeds %d bytes", max)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, max))
}

// handleError renders {"error": message} with a status derived from the error class.
func (s *HTTPServer) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal error"

	var he *echo.HTTPError
	var appErr *common.AppError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case IsInvalidRequest(err) && errors.As(err, &appErr):
		code = http.StatusBadRequest
		msg = appErr.Message
	default:
		common.LoggerFromContext(c.Request().Context(), s.logger).Error("http.handler.failed", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		s.logger.Warn("http.error.write_failed", "error", err)
	}
}
