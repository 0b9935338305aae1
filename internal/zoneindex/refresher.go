package zoneindex

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tadoba-control-go/internal/models"
)

// ZoneSource yields the currently active zones
type ZoneSource interface {
	ActiveZones(ctx context.Context) ([]models.Zone, error)
}

// Refresher periodically reloads an Index from a ZoneSource
type Refresher struct {
	index    *Index
	source   ZoneSource
	interval time.Duration
	logger   zerolog.Logger
}

func NewRefresher(index *Index, source ZoneSource, interval time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{index: index, source: source, interval: interval, logger: logger}
}

// Load performs a single reload. On error the previous snapshot is kept.
func (r *Refresher) Load(ctx context.Context) error {
	zones, err := r.source.ActiveZones(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to load active zones, keeping previous set")
		return err
	}
	n := r.index.Replace(zones)
	r.logger.Debug().Int("zones", n).Msg("Zone index refreshed")
	return nil
}

// Run reloads on every tick until ctx is cancelled
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Load(ctx)
		}
	}
}
