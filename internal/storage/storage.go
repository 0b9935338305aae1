// Package storage defines the persistence collaborator the control plane
// consumes: detection inserts, camera lookups and zone queries.
package storage

import (
	"context"
	"errors"

	"tadoba-control-go/internal/models"
)

var ErrNotFound = errors.New("not found")

type DetectionWriter interface {
	// InsertDetection persists one detection and returns its id. Each call
	// is its own transaction.
	InsertDetection(ctx context.Context, d *models.Detection) (int64, error)
}

type CameraReader interface {
	GetCamera(ctx context.Context, id int64) (models.Camera, error)
}

type ZoneQuerier interface {
	ActiveZones(ctx context.Context) ([]models.Zone, error)
	FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error)
	FindZonesWithin(ctx context.Context, lat, lon, meters float64) ([]models.ZoneDistance, error)
}

type Store interface {
	DetectionWriter
	CameraReader
	ZoneQuerier
	Ping(ctx context.Context) error
	Close() error
}
