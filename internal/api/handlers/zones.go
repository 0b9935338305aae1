package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/zoneindex"
)

type ZoneFinder interface {
	FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error)
	FindZonesWithin(ctx context.Context, lat, lon, meters float64) ([]models.ZoneDistance, error)
}

type ZoneHandler struct {
	zones         ZoneFinder
	defaultMeters float64
}

func NewZoneHandler(zones ZoneFinder, defaultMeters float64) *ZoneHandler {
	return &ZoneHandler{zones: zones, defaultMeters: defaultMeters}
}

type ContainsResponse struct {
	Inside bool         `json:"inside"`
	Zone   *models.Zone `json:"zone"`
}

type NearbyResponse struct {
	Zones       []models.ZoneDistance `json:"zones"`
	Count       int                   `json:"count"`
	MaxDistance float64               `json:"max_distance_meters"`
}

// @Summary Zone containing a point
// @Description Return the active zone containing the coordinate, if any
// @Tags zones
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} ContainsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/zones/contains [get]
func (h *ZoneHandler) Contains(c *gin.Context) {
	lat, lon, ok := coordinates(c)
	if !ok {
		return
	}

	zone, err := h.zones.FindContainingZone(c.Request.Context(), lat, lon)
	if err != nil {
		log.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Zone containment query failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "zone lookup failed"})
		return
	}
	c.JSON(http.StatusOK, ContainsResponse{Inside: zone != nil, Zone: zone})
}

// @Summary Zones near a point
// @Description Return active zones whose boundary lies within max_distance meters, nearest first
// @Tags zones
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param max_distance query number false "Search radius in meters (default 5000)"
// @Success 200 {object} NearbyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/zones/nearby [get]
func (h *ZoneHandler) Nearby(c *gin.Context) {
	lat, lon, ok := coordinates(c)
	if !ok {
		return
	}

	meters := h.defaultMeters
	if raw := c.Query("max_distance"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "max_distance must be a non-negative number"})
			return
		}
		meters = parsed
	}

	found, err := h.zones.FindZonesWithin(c.Request.Context(), lat, lon, meters)
	if err != nil {
		log.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Nearby zone query failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "zone lookup failed"})
		return
	}

	out := make([]models.ZoneDistance, len(found))
	for i, zd := range found {
		out[i] = models.ZoneDistance{Zone: zd.Zone, Distance: zoneindex.RoundMeters(zd.Distance)}
	}
	c.JSON(http.StatusOK, NearbyResponse{Zones: out, Count: len(out), MaxDistance: meters})
}

func coordinates(c *gin.Context) (float64, float64, bool) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lon are required numbers"})
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "coordinates out of range"})
		return 0, 0, false
	}
	return lat, lon, true
}
