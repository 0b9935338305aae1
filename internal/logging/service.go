package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("instance_id", cfg.InstanceID).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, cameraID int64) zerolog.Logger {
	return base.With().Int64("camera_id", cameraID).Logger()
}

func WithSession(base zerolog.Logger, sessionID, role string) zerolog.Logger {
	return base.With().Str("session_id", sessionID).Str("role", role).Logger()
}
