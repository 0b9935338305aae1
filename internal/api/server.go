package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/api/handlers"
	"tadoba-control-go/internal/config"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health     *handlers.HealthHandler
	System     *handlers.SystemHandler
	Zones      *handlers.ZoneHandler
	Frames     *handlers.FrameHandler
	Detections *handlers.DetectionHandler
	Workers    *handlers.WorkerHandler
	Cameras    *handlers.CameraHandler
	Realtime   gin.HandlerFunc
}

type Server struct {
	config   *config.Config
	router   *gin.Engine
	server   *http.Server
	handlers Handlers
}

func NewServer(cfg *config.Config, h Handlers) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		config:   cfg,
		router:   gin.New(),
		handlers: h,
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()

	s.setupRoutes()

	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}

	return nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("🚀 Starting control plane API")
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("🛑 Stopping control plane API...")
	return s.server.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) GetServer() *http.Server {
	return s.server
}
