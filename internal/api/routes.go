package api

import "tadoba-control-go/internal/api/middleware"

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handlers.Health.Info)
	s.router.GET("/health", s.handlers.Health.HealthCheck)

	if s.handlers.Realtime != nil {
		s.router.GET("/ws", s.handlers.Realtime)
	}

	api := s.router.Group("/api")
	{
		api.GET("/zones/contains", s.handlers.Zones.Contains)
		api.GET("/zones/nearby", s.handlers.Zones.Nearby)

		api.POST("/frames", s.handlers.Frames.Submit)
		api.POST("/frames/detect", s.handlers.Frames.Detect)

		api.POST("/detections/results", s.handlers.Detections.SubmitResult)

		api.GET("/workers", s.handlers.Workers.ListWorkers)
		api.GET("/cameras/:camera_id", s.handlers.Cameras.GetCamera)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.handlers.System.GetStats)
	}
}
