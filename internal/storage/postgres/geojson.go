package postgres

import (
	"encoding/json"
	"fmt"

	"tadoba-control-go/internal/models"
)

type geoJSONPolygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// parseRing decodes the exterior ring of an ST_AsGeoJSON polygon. The
// closing vertex is dropped since rings are implicitly closed.
func parseRing(raw string) ([]models.LonLat, error) {
	var poly geoJSONPolygon
	if err := json.Unmarshal([]byte(raw), &poly); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if poly.Type != "Polygon" || len(poly.Coordinates) == 0 {
		return nil, fmt.Errorf("unsupported geometry %q", poly.Type)
	}
	outer := poly.Coordinates[0]
	if n := len(outer); n > 1 && outer[0] == outer[n-1] {
		outer = outer[:n-1]
	}
	ring := make([]models.LonLat, len(outer))
	for i, v := range outer {
		ring[i] = models.LonLat{Lon: v[0], Lat: v[1]}
	}
	return ring, nil
}

// ringWKT renders a ring as a closed WKT polygon for inserts
func ringWKT(ring []models.LonLat) string {
	if len(ring) == 0 {
		return "POLYGON EMPTY"
	}
	s := "POLYGON(("
	for _, v := range ring {
		s += fmt.Sprintf("%g %g,", v.Lon, v.Lat)
	}
	s += fmt.Sprintf("%g %g))", ring[0].Lon, ring[0].Lat)
	return s
}

func (r zoneRow) toModel() (models.Zone, error) {
	ring, err := parseRing(r.GeoJSON)
	if err != nil {
		return models.Zone{}, fmt.Errorf("zone %d: %w", r.ID, err)
	}
	return models.Zone{
		ID:          r.ID,
		Name:        r.Name,
		Category:    models.ZoneCategory(r.ZoneType),
		Description: r.Description,
		Ring:        ring,
		Color:       r.Color,
		Properties:  r.Properties,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}
