// Package memory is a process-local Store seeded from a YAML file. Zone
// queries are answered by an in-memory zone index.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/storage"
	"tadoba-control-go/internal/zoneindex"
)

type seedZone struct {
	ID          int64          `yaml:"id"`
	Name        string         `yaml:"name"`
	ZoneType    string         `yaml:"zone_type"`
	Description string         `yaml:"description"`
	Color       string         `yaml:"color"`
	Properties  map[string]any `yaml:"properties"`
	Active      *bool          `yaml:"is_active"`
	// [[lon, lat], ...]
	Geometry [][2]float64 `yaml:"geometry"`
}

type seedFile struct {
	Cameras []models.Camera `yaml:"cameras"`
	Zones   []seedZone      `yaml:"zones"`
}

type Store struct {
	mu         sync.RWMutex
	cameras    map[int64]models.Camera
	zones      []models.Zone
	detections []models.Detection
	nextID     int64
	index      *zoneindex.Index
}

func New() *Store {
	return &Store{
		cameras: make(map[int64]models.Camera),
		nextID:  1,
		index:   zoneindex.New(),
	}
}

// LoadFile seeds a new store from a YAML file
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Load(raw)
}

func Load(raw []byte) (*Store, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	s := New()
	for _, c := range seed.Cameras {
		if c.Status == "" {
			c.Status = models.CameraStatusOffline
		}
		s.cameras[c.ID] = c
	}
	now := time.Now()
	zones := make([]models.Zone, 0, len(seed.Zones))
	for _, z := range seed.Zones {
		category := models.ZoneCategory(z.ZoneType)
		if !category.IsValid() {
			return nil, fmt.Errorf("zone %d: unknown zone_type %q", z.ID, z.ZoneType)
		}
		zone := models.Zone{
			ID:          z.ID,
			Name:        z.Name,
			Category:    category,
			Description: z.Description,
			Color:       z.Color,
			Properties:  z.Properties,
			IsActive:    z.Active == nil || *z.Active,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if zone.Color == "" {
			zone.Color = models.DefaultZoneColor
		}
		for _, v := range z.Geometry {
			zone.Ring = append(zone.Ring, models.LonLat{Lon: v[0], Lat: v[1]})
		}
		zones = append(zones, zone)
	}
	s.SetZones(zones)
	return s, nil
}

// SetZones replaces the zone set, as the management side would
func (s *Store) SetZones(zones []models.Zone) {
	s.mu.Lock()
	s.zones = append([]models.Zone(nil), zones...)
	s.mu.Unlock()
	s.index.Replace(zones)
}

// Zones returns every zone, active or not, in load order
func (s *Store) Zones() []models.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Zone(nil), s.zones...)
}

// Cameras returns every camera ordered by id
func (s *Store) Cameras() []models.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Camera, 0, len(s.cameras))
	for _, c := range s.cameras {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (s *Store) PutCamera(c models.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[c.ID] = c
}

func (s *Store) InsertDetection(ctx context.Context, d *models.Detection) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextID
	s.nextID++
	s.detections = append(s.detections, *d)
	return d.ID, nil
}

func (s *Store) Detections() []models.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Detection(nil), s.detections...)
}

func (s *Store) GetCamera(ctx context.Context, id int64) (models.Camera, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cameras[id]
	if !ok {
		return models.Camera{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ActiveZones(ctx context.Context) ([]models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]models.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		if z.IsActive {
			active = append(active, z)
		}
	}
	return active, nil
}

func (s *Store) FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error) {
	return zoneindex.Locator{Index: s.index}.FindContainingZone(ctx, lat, lon)
}

func (s *Store) FindZonesWithin(ctx context.Context, lat, lon, meters float64) ([]models.ZoneDistance, error) {
	return zoneindex.Locator{Index: s.index}.FindZonesWithin(ctx, lat, lon, meters)
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
