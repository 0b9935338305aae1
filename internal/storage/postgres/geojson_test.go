package postgres

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
)

func TestParseRingDropsClosingVertex(t *testing.T) {
	ring, err := parseRing(`{"type":"Polygon","coordinates":[[[79.33,20.23],[79.35,20.23],[79.35,20.25],[79.33,20.25],[79.33,20.23]]]}`)
	require.NoError(t, err)
	require.Len(t, ring, 4)
	assert.Equal(t, models.LonLat{Lon: 79.33, Lat: 20.23}, ring[0])
	assert.Equal(t, models.LonLat{Lon: 79.33, Lat: 20.25}, ring[3])
}

func TestParseRingRejectsOtherGeometry(t *testing.T) {
	_, err := parseRing(`{"type":"Point","coordinates":[79.3,20.2]}`)
	assert.Error(t, err)
}

func TestRingWKTIsClosed(t *testing.T) {
	wkt := ringWKT([]models.LonLat{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 2}, {Lon: 3, Lat: 4}})
	assert.Equal(t, "POLYGON((1 2,3 2,3 4,1 2))", wkt)
}

func TestDetectionRowMapping(t *testing.T) {
	lat, lon := 20.24, 79.34
	zone := int64(10)
	d := &models.Detection{
		CameraID:    1,
		Class:       "person",
		Confidence:  0.95,
		BBox:        models.BoxFromCorners(100, 200, 150, 280),
		SnapshotRef: "cam1_20250101_120000_000000.jpg",
		Latitude:    &lat,
		Longitude:   &lon,
		ZoneID:      &zone,
		DetectedAt:  time.Unix(0, 0),
	}

	row := detectionFromModel(d)
	assert.Equal(t, "person", row.DetectionClass)
	assert.Equal(t, 50.0, row.BBox.Data().Width)
	require.NotNil(t, row.SnapshotURL)
	assert.Equal(t, d.SnapshotRef, *row.SnapshotURL)
	assert.Equal(t, &zone, row.GeofenceID)
}

func TestMercatorScale(t *testing.T) {
	assert.InDelta(t, 1.0, mercatorScale(0), 1e-12)
	assert.InDelta(t, 0.5, mercatorScale(60), 1e-9)
	assert.InDelta(t, math.Cos(20.25*math.Pi/180), mercatorScale(-20.25), 1e-12)
	assert.Greater(t, mercatorScale(90), 0.0)
}
