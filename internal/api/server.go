// Package api exposes the risk prediction service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"shdp-backend/internal/cfg"
	"shdp-backend/internal/common"
	"shdp-backend/internal/disease"
	"shdp-backend/internal/metrics"
	"shdp-backend/internal/ml"
)

// Server represents the HTTP server
type Server struct {
	settings  cfg.Settings
	registry  *ml.Registry
	predictor *ml.Predictor
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	router    *gin.Engine
	server    *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics records HTTP metrics in m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// NewServer creates a new HTTP server instance
func NewServer(settings cfg.Settings, registry *ml.Registry, predictor *ml.Predictor, opts ...Option) *Server {
	gin.SetMode(settings.GinMode)

	s := &Server{
		settings:  settings,
		registry:  registry,
		predictor: predictor,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(recoveryMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(s.metrics))
	router.Use(corsMiddleware(settings.AllowedOrigins))
	s.router = router

	s.setupRoutes()

	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.settings.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: s.settings.ReadTimeout,
		ReadTimeout:       s.settings.ReadTimeout,
		WriteTimeout:      s.settings.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.settings.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/predict", s.handlePredict)

	models := s.router.Group("/models")
	{
		models.GET("", s.handleListModels)
		models.POST("/reload", s.handleReloadAll)
		models.GET("/:type", s.handleModelInfo)
		models.POST("/:type/reload", s.handleReloadModel)
	}

	if s.settings.MetricsEnabled && s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// handleHealth reports liveness; it does not depend on model availability
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  common.HealthyStatus,
		"message": common.HealthyStatusMessage,
	})
}

type modelEntry struct {
	Type disease.Type `json:"type"`
	File string       `json:"file"`
}

// handleListModels returns the static descriptor table
func (s *Server) handleListModels(c *gin.Context) {
	all := disease.All()
	entries := make([]modelEntry, 0, len(all))
	for _, d := range all {
		entries = append(entries, modelEntry{Type: d.Type, File: d.File})
	}
	c.JSON(http.StatusOK, gin.H{"available_models": entries})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	info, err := s.registry.Info(c.Param("type"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleReloadModel(c *gin.Context) {
	diseaseType := c.Param("type")
	evicted, err := s.registry.Evict(diseaseType)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": diseaseType, "evicted": evicted})
}

func (s *Server) handleReloadAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"evicted": s.registry.Purge()})
}
