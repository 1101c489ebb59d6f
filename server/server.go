// Package server exposes the HTTP surface: health, metrics and a small
// stats/teach API mirroring the chat commands.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sabia-bot/sabia/engine"
	"github.com/sabia-bot/sabia/engine/metrics"
	"github.com/sabia-bot/sabia/internal/profile"
)

// Server is the echo HTTP server.
type Server struct {
	e       *echo.Echo
	engine  *engine.Engine
	profile *profile.Profile
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(profile *profile.Profile, eng *engine.Engine, collector *metrics.Collector) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		e:       e,
		engine:  eng,
		profile: profile,
	}

	e.GET("/healthz", s.healthz)
	if collector != nil {
		e.GET("/metrics", echo.WrapHandler(collector.Handler()))
	}

	apiV1 := e.Group("/api/v1")
	apiV1.GET("/stats", s.getStats)
	apiV1.POST("/teach", s.postTeach)

	return s
}

// Start serves until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	slog.Info("http server listening", "addr", addr)
	return s.e.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.profile.Version,
	})
}

type statsResponse struct {
	Interactions     int64     `json:"interactions"`
	PositiveFeedback int64     `json:"positive_feedback"`
	NegativeFeedback int64     `json:"negative_feedback"`
	LastUpdated      time.Time `json:"last_updated"`
	KnowledgeEntries int       `json:"knowledge_entries"`
	LearnedPatterns  int       `json:"learned_patterns"`
	Conversations    int       `json:"conversations"`
}

func (s *Server) getStats(c echo.Context) error {
	report := s.engine.Stats()
	return c.JSON(http.StatusOK, statsResponse{
		Interactions:     report.Interactions,
		PositiveFeedback: report.PositiveFeedback,
		NegativeFeedback: report.NegativeFeedback,
		LastUpdated:      report.LastUpdated,
		KnowledgeEntries: report.KnowledgeEntries,
		LearnedPatterns:  report.LearnedPatterns,
		Conversations:    report.Conversations,
	})
}

type teachRequest struct {
	// Input carries the raw "pergunta | resposta" form, same as the chat
	// command.
	Input string `json:"input"`
}

type teachResponse struct {
	Pattern string `json:"pattern"`
	Reply   string `json:"reply"`
}

func (s *Server) postTeach(c echo.Context) error {
	var req teachRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pattern, reply, err := engine.ParseTeachInput(req.Input)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.engine.Teach(pattern, reply)
	return c.JSON(http.StatusOK, teachResponse{Pattern: pattern, Reply: reply})
}
