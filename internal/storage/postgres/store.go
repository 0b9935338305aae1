// Package postgres implements storage.Store on PostgreSQL with PostGIS
// through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/storage"
)

const zoneColumns = `id, name, zone_type, COALESCE(description, '') AS description,
	COALESCE(color, '#22c55e') AS color, properties, is_active, created_at, updated_at,
	ST_AsGeoJSON(geometry) AS geojson`

type Options struct {
	MaxConns      int
	SlowThreshold time.Duration
	AutoMigrate   bool
}

type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Debug().Msgf(format, args...)
}

func Open(dsn string, opts Options, log zerolog.Logger) (*Store, error) {
	gormLogger := logger.New(gormWriter{logger: log}, logger.Config{
		SlowThreshold:             opts.SlowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if opts.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConns)
		sqlDB.SetMaxIdleConns(opts.MaxConns / 2)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, logger: log}
	if opts.AutoMigrate {
		if err := s.migrate(); err != nil {
			return nil, err
		}
	}
	log.Info().Msg("Connected to PostgreSQL")
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return fmt.Errorf("enable postgis: %w", err)
	}
	if err := s.db.AutoMigrate(&cameraRow{}, &geofenceRow{}, &detectionRow{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (s *Store) InsertDetection(ctx context.Context, d *models.Detection) (int64, error) {
	row := detectionFromModel(d)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert detection: %w", err)
	}
	d.ID = row.ID
	return row.ID, nil
}

func (s *Store) GetCamera(ctx context.Context, id int64) (models.Camera, error) {
	var row cameraRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Camera{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Camera{}, fmt.Errorf("get camera %d: %w", id, err)
	}
	return row.toModel(), nil
}

// ActiveZones returns active zones ordered by id, the same order
// FindContainingZone uses to break ties.
func (s *Store) ActiveZones(ctx context.Context) ([]models.Zone, error) {
	var rows []zoneRow
	query := `SELECT ` + zoneColumns + ` FROM geofences WHERE is_active = true ORDER BY id`
	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("active zones: %w", err)
	}
	return s.toZones(rows), nil
}

func (s *Store) FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error) {
	var rows []zoneRow
	query := `SELECT ` + zoneColumns + `
		FROM geofences
		WHERE is_active = true
		AND ST_Contains(geometry, ST_SetSRID(ST_MakePoint(?, ?), 4326))
		ORDER BY id
		LIMIT 1`
	if err := s.db.WithContext(ctx).Raw(query, lon, lat).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("geofence lookup query failed: %w", err)
	}
	zones := s.toZones(rows)
	if len(zones) == 0 {
		return nil, nil
	}
	return &zones[0], nil
}

// FindZonesWithin measures in Web Mercator, scaled back to ground meters at
// the query latitude. This is the same planar metric the in-memory index
// uses, so both backends agree near the point.
func (s *Store) FindZonesWithin(ctx context.Context, lat, lon, meters float64) ([]models.ZoneDistance, error) {
	var rows []zoneRow
	scale := mercatorScale(lat)
	query := `SELECT ` + zoneColumns + `,
		ST_Distance(ST_Transform(geometry, 3857), ST_Transform(ST_SetSRID(ST_MakePoint(?, ?), 4326), 3857)) * ? AS distance
		FROM geofences
		WHERE is_active = true
		AND ST_DWithin(ST_Transform(geometry, 3857), ST_Transform(ST_SetSRID(ST_MakePoint(?, ?), 4326), 3857), ?)
		ORDER BY distance, id`
	if err := s.db.WithContext(ctx).Raw(query, lon, lat, scale, lon, lat, meters/scale).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("nearby zones query failed: %w", err)
	}
	out := make([]models.ZoneDistance, 0, len(rows))
	for _, r := range rows {
		z, err := r.toModel()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Skipping zone with unreadable geometry")
			continue
		}
		out = append(out, models.ZoneDistance{Zone: z, Distance: r.Distance})
	}
	return out, nil
}

// mercatorScale converts Web Mercator lengths to ground meters at lat
func mercatorScale(lat float64) float64 {
	return math.Max(math.Cos(lat*math.Pi/180), 1e-6)
}

// UpsertZone writes a zone; used by seeding tools.
func (s *Store) UpsertZone(ctx context.Context, z models.Zone) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(`INSERT INTO geofences (id, name, zone_type, geometry, description, color, properties, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ST_GeomFromText(?, 4326), ?, ?, ?, ?, now(), now())
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, zone_type = EXCLUDED.zone_type,
			geometry = EXCLUDED.geometry, description = EXCLUDED.description, color = EXCLUDED.color,
			properties = EXCLUDED.properties, is_active = EXCLUDED.is_active, updated_at = now()`,
			z.ID, z.Name, string(z.Category), ringWKT(z.Ring), z.Description, z.Color,
			datatypesMap(z.Properties), z.IsActive).Error
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) toZones(rows []zoneRow) []models.Zone {
	zones := make([]models.Zone, 0, len(rows))
	for _, r := range rows {
		z, err := r.toModel()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Skipping zone with unreadable geometry")
			continue
		}
		zones = append(zones, z)
	}
	return zones
}

var _ storage.Store = (*Store)(nil)

// UpsertCamera writes a camera; used by seeding tools.
func (s *Store) UpsertCamera(ctx context.Context, c models.Camera) error {
	row := cameraRow{
		ID:         c.ID,
		Name:       c.Name,
		CameraType: string(c.Type),
		URL:        c.URL,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Heading:    c.Heading,
		Status:     string(c.Status),
		LastSeen:   c.LastSeen,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}
