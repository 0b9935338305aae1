package models

import "time"

// ZoneCategory represents the protection level of a zone
type ZoneCategory string

const (
	ZoneCategoryCore   ZoneCategory = "core"
	ZoneCategoryBuffer ZoneCategory = "buffer"
	ZoneCategorySafe   ZoneCategory = "safe"
)

// String returns the string representation of ZoneCategory
func (zc ZoneCategory) String() string {
	return string(zc)
}

// IsValid checks if the zone category is one of the known categories
func (zc ZoneCategory) IsValid() bool {
	switch zc {
	case ZoneCategoryCore, ZoneCategoryBuffer, ZoneCategorySafe:
		return true
	default:
		return false
	}
}

// DefaultZoneColor is used when a zone is stored without a display color
const DefaultZoneColor = "#22c55e"

// LonLat is a single polygon vertex, longitude first like GeoJSON
type LonLat struct {
	Lon float64 `json:"lon" yaml:"lon"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Zone is a named polygonal area. The ring is implicitly closed: the last
// vertex connects back to the first.
type Zone struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Category    ZoneCategory   `json:"zone_type"`
	Description string         `json:"description,omitempty"`
	Ring        []LonLat       `json:"geometry"`
	Color       string         `json:"color"`
	Properties  map[string]any `json:"properties,omitempty"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ZoneDistance pairs a zone with its distance from a query point in meters
type ZoneDistance struct {
	Zone     Zone    `json:"zone"`
	Distance float64 `json:"distance_meters"`
}

// ZoneRef is the compact zone projection used in API responses
type ZoneRef struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Category ZoneCategory `json:"zone_type"`
	Color    string       `json:"color"`
}

// Ref returns the compact projection of the zone
func (z Zone) Ref() ZoneRef {
	return ZoneRef{ID: z.ID, Name: z.Name, Category: z.Category, Color: z.Color}
}
