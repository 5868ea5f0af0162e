package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
	"github.com/Chase295/pump-platform-sub002/internal/storage"
	"github.com/Chase295/pump-platform-sub002/internal/trigger"
)

// SignalSink receives prediction signals from the HTTP boundary.
type SignalSink interface {
	OnSignal(sig trigger.Signal)
}

type Server struct {
	httpServer *http.Server
	repo       *storage.Repository
	engine     SignalSink
	validate   *validator.Validate
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(repo *storage.Repository, engine SignalSink, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		repo:     repo,
		engine:   engine,
		validate: validator.New(),
		config:   cfg,
		logger:   log,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/signals", s.handleSignal)

		api.GET("/workflows", s.handleListWorkflows)
		api.POST("/workflows", s.handleCreateWorkflow)
		api.GET("/workflows/:id", s.handleGetWorkflow)
		api.PUT("/workflows/:id", s.handleUpdateWorkflow)
		api.DELETE("/workflows/:id", s.handleDeleteWorkflow)
		api.POST("/workflows/:id/toggle", s.handleToggleWorkflow)

		api.GET("/executions", s.handleListExecutions)
		api.GET("/wallets/:id/positions", s.handleWalletPositions)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
