package zoneindex

import (
	"context"

	"tadoba-control-go/internal/models"
)

// Locator exposes an Index through the same query methods the database
// stores implement, so callers can swap one for the other.
type Locator struct {
	*Index
}

func (l Locator) FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error) {
	z, ok := l.Contains(lat, lon)
	if !ok {
		return nil, nil
	}
	return &z, nil
}

func (l Locator) FindZonesWithin(ctx context.Context, lat, lon, meters float64) ([]models.ZoneDistance, error) {
	return l.WithinDistance(lat, lon, meters), nil
}
