package zoneindex

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
)

func square(id int64, name string, minLon, minLat, maxLon, maxLat float64) models.Zone {
	return models.Zone{
		ID:       id,
		Name:     name,
		Category: models.ZoneCategoryCore,
		IsActive: true,
		Ring: []models.LonLat{
			{Lon: minLon, Lat: minLat},
			{Lon: maxLon, Lat: minLat},
			{Lon: maxLon, Lat: maxLat},
			{Lon: minLon, Lat: maxLat},
		},
	}
}

func TestContainsCoreA(t *testing.T) {
	idx := New()
	idx.Replace([]models.Zone{square(1, "CoreA", 79.33, 20.23, 79.35, 20.25)})

	z, ok := idx.Contains(20.24, 79.34)
	require.True(t, ok)
	assert.Equal(t, "CoreA", z.Name)

	_, ok = idx.Contains(21.00, 80.00)
	assert.False(t, ok)
}

func TestContainsIsDeterministic(t *testing.T) {
	idx := New()
	idx.Replace([]models.Zone{
		square(1, "First", 79.30, 20.20, 79.40, 20.30),
		square(2, "Second", 79.33, 20.23, 79.35, 20.25),
	})

	for n := 0; n < 10; n++ {
		z, ok := idx.Contains(20.24, 79.34)
		require.True(t, ok)
		assert.Equal(t, int64(1), z.ID, "overlap resolves to load order")
	}
}

func TestInactiveAndDegenerateZonesIgnored(t *testing.T) {
	inactive := square(1, "Closed", 79.33, 20.23, 79.35, 20.25)
	inactive.IsActive = false
	degenerate := models.Zone{ID: 2, Name: "Line", IsActive: true, Ring: []models.LonLat{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}}}

	idx := New()
	assert.Equal(t, 0, idx.Replace([]models.Zone{inactive, degenerate}))

	_, ok := idx.Contains(20.24, 79.34)
	assert.False(t, ok)
	assert.Empty(t, idx.WithinDistance(20.24, 79.34, 1e7))
}

func TestWithinDistanceSortedAndBounded(t *testing.T) {
	idx := New()
	idx.Replace([]models.Zone{
		square(1, "Far", 79.50, 20.23, 79.52, 20.25),
		square(2, "Inside", 79.33, 20.23, 79.35, 20.25),
		square(3, "Near", 79.36, 20.23, 79.38, 20.25),
	})

	got := idx.WithinDistance(20.24, 79.34, 5000)
	require.Len(t, got, 2)
	assert.Equal(t, "Inside", got[0].Zone.Name)
	assert.Zero(t, got[0].Distance)
	assert.Equal(t, "Near", got[1].Zone.Name)
	// 0.02 degrees of longitude at 20.24N is roughly 2.09 km
	assert.InDelta(t, 2087, got[1].Distance, 15)

	for n := 1; n < len(got); n++ {
		assert.LessOrEqual(t, got[n-1].Distance, got[n].Distance)
	}

	all := idx.WithinDistance(20.24, 79.34, 50000)
	require.Len(t, all, 3)
	assert.Equal(t, "Far", all[2].Zone.Name)
}

func TestWithinDistanceIndependentOfLongitude(t *testing.T) {
	a := New()
	a.Replace([]models.Zone{square(1, "A", 10.01, 0.0, 10.02, 0.01)})
	b := New()
	b.Replace([]models.Zone{square(1, "B", 120.01, 0.0, 120.02, 0.01)})

	da := a.WithinDistance(0.005, 10.0, 5000)
	db := b.WithinDistance(0.005, 120.0, 5000)
	require.Len(t, da, 1)
	require.Len(t, db, 1)
	assert.InDelta(t, da[0].Distance, db[0].Distance, 1e-6)
}

func TestRoundMeters(t *testing.T) {
	assert.Equal(t, 1234.57, RoundMeters(1234.5678))
	assert.Equal(t, 0.0, RoundMeters(0.001))
}

type stubSource struct {
	zones []models.Zone
	err   error
}

func (s *stubSource) ActiveZones(context.Context) ([]models.Zone, error) {
	return s.zones, s.err
}

func TestRefresherKeepsPreviousSetOnError(t *testing.T) {
	idx := New()
	src := &stubSource{zones: []models.Zone{square(1, "CoreA", 79.33, 20.23, 79.35, 20.25)}}
	r := NewRefresher(idx, src, 0, zerolog.Nop())

	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, 1, idx.Len())

	src.err = errors.New("db down")
	require.Error(t, r.Load(context.Background()))
	assert.Equal(t, 1, idx.Len())
}
