// Package server is the Fiber HTTP surface in front of the engine.
package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	contractx "github.com/wayfarer-ai/wayfinder/agent/contract"
	"github.com/wayfarer-ai/wayfinder/agent/engine"
	"github.com/wayfarer-ai/wayfinder/metering"
)

type Config struct {
	Port         int           `envconfig:"PORT" default:"8000"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"10s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"90s"`
}

type Server struct {
	app    *fiber.App
	cfg    Config
	engine *engine.Engine
	stats  contractx.UsageRecorder
	budget *metering.BudgetTracker
}

func New(cfg Config, eng *engine.Engine, stats contractx.UsageRecorder, budget *metering.BudgetTracker) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		stats:  stats,
		budget: budget,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "wayfinder",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.handleRoot)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", s.handleMetrics)
	s.app.Get("/budget", s.handleBudget)
	s.app.Get("/test", s.handleTest)
	s.app.Post("/directions", s.handleDirections)
}

// Run blocks until the listener stops.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	log.Info().Str("addr", addr).Msg("http server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

type directionsRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleDirections(c *fiber.Ctx) error {
	var req directionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": contractx.ErrEmptyQuery.Error(),
		})
	}

	resp := s.engine.Process(c.UserContext(), req.Query)
	return c.JSON(resp)
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "wayfinder",
		"message": "Multi-agent travel assistant. POST /directions with a query.",
		"endpoints": []string{
			"POST /directions",
			"GET /health",
			"GET /metrics",
			"GET /budget",
			"GET /test",
		},
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"agents": s.engine.AgentNames(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	stats, err := s.stats.Stats(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("could not load usage stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "usage stats unavailable",
		})
	}
	return c.JSON(stats)
}

func (s *Server) handleBudget(c *fiber.Ctx) error {
	report, err := s.budget.Report()
	if err != nil {
		log.Error().Err(err).Msg("could not load budget report")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "budget report unavailable",
		})
	}
	return c.JSON(report)
}

// handleTest runs a fixed set of queries through the full pipeline. Useful
// for smoke-checking provider credentials after deployment.
func (s *Server) handleTest(c *fiber.Ctx) error {
	queries := []string{
		"directions to Times Square",
		"how do I get to Central Park",
		"route to JFK airport",
	}

	results := make([]fiber.Map, 0, len(queries))
	for _, q := range queries {
		resp := s.engine.Process(c.UserContext(), q)
		results = append(results, fiber.Map{
			"query":      q,
			"request_id": resp.RequestID,
			"directions": resp.Directions,
			"errors":     resp.ErrorsEncountered,
		})
	}
	return c.JSON(fiber.Map{"results": results})
}
