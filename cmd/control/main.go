package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/api"
	"tadoba-control-go/internal/api/handlers"
	"tadoba-control-go/internal/config"
	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/services"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	console := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = log.Output(console)

	// Load configuration
	cfg := config.Load()

	if cfg.Environment == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if cfg.LogdyEnabled {
		writer, _, err := logging.StartLogdy(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to start Logdy, continuing without it")
		} else {
			log.Logger = log.Output(zerolog.MultiLevelWriter(console, writer))
		}
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("instance_id", cfg.InstanceID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("worker_type", cfg.DetectionWorkerType).
		Msg("Starting surveillance control plane")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := services.NewServiceContainer(startCtx, cfg)
	cancelStart()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	server := api.NewServer(cfg, buildHandlers(cfg, container))
	if err := server.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := container.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Services did not shut down cleanly")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

func buildHandlers(cfg *config.Config, sc *services.ServiceContainer) api.Handlers {
	checks := map[string]handlers.HealthCheck{
		"store": sc.Store.Ping,
	}
	if sc.DetectionSvc != nil {
		checks["detector"] = sc.DetectionSvc.HealthCheck
	}
	if sc.Messaging != nil {
		checks["nats"] = func(ctx context.Context) error {
			if !sc.Messaging.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}

	stats := map[string]handlers.StatsSource{
		"workers":    func() any { return sc.Registry.Len() },
		"sessions":   func() any { return sc.Gateway.Sessions() },
		"dispatch":   func() any { return sc.Router.Stats() },
		"fanout":     func() any { return sc.Hub.Stats() },
		"cooldowns":  func() any { return sc.Alerts.Size() },
		"processing": func() any {
			total, cameras := sc.Hub.Telemetry().Snapshot()
			return map[string]any{"total": total, "cameras": cameras}
		},
	}
	if sc.ZoneIndex != nil {
		stats["zones"] = func() any {
			return map[string]any{"active": sc.ZoneIndex.Len(), "loaded_at": sc.ZoneIndex.LoadedAt()}
		}
	}

	return api.Handlers{
		Health:     handlers.NewHealthHandler(cfg.InstanceID, cfg.Version, checks),
		System:     handlers.NewSystemHandler(cfg.InstanceID, stats),
		Zones:      handlers.NewZoneHandler(sc.Zones, cfg.DefaultNearbyMeters),
		Frames:     handlers.NewFrameHandler(sc.Router, sc.Pipeline, sc.Detector(), cfg.AITimeout),
		Detections: handlers.NewDetectionHandler(sc.Pipeline),
		Workers:    handlers.NewWorkerHandler(sc.Registry),
		Cameras:    handlers.NewCameraHandler(sc.Store),
		Realtime:   sc.Gateway.ServeWS,
	}
}
