package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/storage"
)

const seed = `
cameras:
  - id: 1
    name: Gate
    camera_type: rtsp
    latitude: 20.24
    longitude: 79.34
  - id: 2
    name: Dashcam
    camera_type: dashcam
zones:
  - id: 10
    name: CoreA
    zone_type: core
    geometry: [[79.33, 20.23], [79.35, 20.23], [79.35, 20.25], [79.33, 20.25]]
  - id: 11
    name: Retired
    zone_type: buffer
    is_active: false
    geometry: [[79.33, 20.23], [79.35, 20.23], [79.35, 20.25], [79.33, 20.25]]
`

func TestLoadSeed(t *testing.T) {
	s, err := Load([]byte(seed))
	require.NoError(t, err)
	ctx := context.Background()

	cam, err := s.GetCamera(ctx, 1)
	require.NoError(t, err)
	lat, lon, ok := cam.Location()
	require.True(t, ok)
	assert.Equal(t, 20.24, lat)
	assert.Equal(t, 79.34, lon)
	assert.Equal(t, models.CameraStatusOffline, cam.Status)

	_, err = s.GetCamera(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	zones, err := s.ActiveZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, models.DefaultZoneColor, zones[0].Color)

	z, err := s.FindContainingZone(ctx, 20.24, 79.34)
	require.NoError(t, err)
	require.NotNil(t, z)
	assert.Equal(t, int64(10), z.ID)

	z, err = s.FindContainingZone(ctx, 21, 80)
	require.NoError(t, err)
	assert.Nil(t, z)
}

func TestLoadRejectsUnknownCategory(t *testing.T) {
	_, err := Load([]byte("zones:\n  - id: 1\n    zone_type: moat\n"))
	assert.Error(t, err)
}

func TestInsertDetectionAssignsIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := &models.Detection{CameraID: 1, Class: "person"}
	b := &models.Detection{CameraID: 1, Class: "tiger"}

	id, err := s.InsertDetection(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	id, err = s.InsertDetection(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
	assert.Len(t, s.Detections(), 2)
}
