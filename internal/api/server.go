// Package api serves the poetry form and the JSON generation API.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/samcharles93/bazm/internal/generator"
	"github.com/samcharles93/bazm/internal/logger"
	"github.com/samcharles93/bazm/internal/metrics"
	"github.com/samcharles93/bazm/internal/webui"
)

// PoemGenerator produces poems for requests that passed validation.
type PoemGenerator interface {
	Generate(ctx context.Context, req generator.Request) (generator.Result, error)
}

// Config configures a Server. Zero values select the defaults.
type Config struct {
	Limits generator.Limits
	// Defaults fill form fields and omitted JSON fields. SeedText is
	// ignored.
	Defaults generator.Request
	Model    ModelInfo
	Metrics  metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         logger.Logger
}

// DefaultRequest holds the initial form values.
func DefaultRequest() generator.Request {
	return generator.Request{
		NumLines:     1,
		WordsPerLine: 5,
		Temperature:  0.8,
	}
}

type Server struct {
	gen     PoemGenerator
	cfg     Config
	metrics metrics.Recorder
	log     logger.Logger
	clock   func() time.Time
}

func NewServer(gen PoemGenerator, cfg Config) *Server {
	if cfg.Limits == (generator.Limits{}) {
		cfg.Limits = generator.DefaultLimits()
	}
	def := DefaultRequest()
	if cfg.Defaults.NumLines <= 0 {
		cfg.Defaults.NumLines = def.NumLines
	}
	if cfg.Defaults.WordsPerLine <= 0 {
		cfg.Defaults.WordsPerLine = def.WordsPerLine
	}
	if cfg.Defaults.Temperature <= 0 {
		cfg.Defaults.Temperature = def.Temperature
	}
	cfg.Defaults.SeedText = ""

	s := &Server{
		gen:     gen,
		cfg:     cfg,
		metrics: cfg.Metrics,
		log:     cfg.Logger,
		clock:   time.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	// Web form
	e.GET("/", s.handleIndex)
	e.POST("/", s.handleForm)
	e.GET("/static/*", s.handleStatic)

	// JSON API
	e.POST("/v1/poems", s.handleCreatePoem)
	e.GET("/v1/model", s.handleModel)

	e.GET("/healthz", s.handleHealth)
	if s.cfg.MetricsHandler != nil {
		e.GET("/metrics", s.handleMetrics)
	}
}

// RequestLogger logs every request and records it in the request metrics.
func (s *Server) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			route := v.RoutePath
			if route == "" {
				route = "unmatched"
			}
			s.metrics.ObserveRequest(v.Method, route, strconv.Itoa(v.Status), v.Latency)
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				s.log.Error("request failed", append(args, "error", v.Error)...)
				return nil
			}
			s.log.Info("request", args...)
			return nil
		},
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleModel(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "model",
		"model":  s.cfg.Model,
		"limits": s.cfg.Limits,
		"defaults": map[string]any{
			"num_lines":      s.cfg.Defaults.NumLines,
			"words_per_line": s.cfg.Defaults.WordsPerLine,
			"temperature":    s.cfg.Defaults.Temperature,
		},
	})
}

func (s *Server) handleMetrics(c *echo.Context) error {
	s.cfg.MetricsHandler.ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *Server) handleStatic(c *echo.Context) error {
	h := http.StripPrefix("/static/", http.FileServer(webui.StaticFS()))
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}

// generate runs one generation and records its outcome.
func (s *Server) generate(ctx context.Context, req generator.Request) (generator.Result, error) {
	start := s.clock()
	res, err := s.gen.Generate(ctx, req)
	elapsed := s.clock().Sub(start)
	if err != nil {
		f := classify(err)
		s.metrics.ObserveGeneration(f.outcome, 0, elapsed)
		if f.status >= http.StatusInternalServerError {
			s.log.Error("generation failed", "error", err, "seed_text", req.SeedText)
		}
		return generator.Result{}, err
	}
	s.metrics.ObserveGeneration(metrics.OutcomeOK, req.NumLines*req.WordsPerLine, elapsed)
	return res, nil
}
