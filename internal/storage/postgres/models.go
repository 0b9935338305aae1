package postgres

import (
	"time"

	"gorm.io/datatypes"

	"tadoba-control-go/internal/models"
)

type geofenceRow struct {
	ID          int64             `gorm:"primaryKey"`
	Name        string            `gorm:"size:255;not null"`
	ZoneType    string            `gorm:"size:16;not null;index"`
	Geometry    string            `gorm:"type:geometry(Polygon,4326);not null"`
	Description string            `gorm:"type:text"`
	Color       string            `gorm:"size:16;default:'#22c55e'"`
	Properties  datatypes.JSONMap `gorm:"type:jsonb"`
	IsActive    bool              `gorm:"default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (geofenceRow) TableName() string { return "geofences" }

type cameraRow struct {
	ID         int64    `gorm:"primaryKey"`
	Name       string   `gorm:"size:255"`
	CameraType string   `gorm:"size:16"`
	URL        string   `gorm:"type:text"`
	Latitude   *float64
	Longitude  *float64
	Heading    *float64
	Status     string `gorm:"size:16;default:'offline'"`
	LastSeen   *time.Time
}

func (cameraRow) TableName() string { return "cameras" }

func (r cameraRow) toModel() models.Camera {
	return models.Camera{
		ID:        r.ID,
		Name:      r.Name,
		Type:      models.CameraType(r.CameraType),
		URL:       r.URL,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Heading:   r.Heading,
		Status:    models.CameraStatus(r.Status),
		LastSeen:  r.LastSeen,
	}
}

type detectionRow struct {
	ID             int64                            `gorm:"primaryKey"`
	CameraID       int64                            `gorm:"not null;index"`
	DetectionClass string                           `gorm:"size:64;not null;index"`
	Confidence     float64                          `gorm:"not null"`
	BBox           datatypes.JSONType[models.BBox] `gorm:"column:bbox;type:jsonb"`
	SnapshotURL    *string                          `gorm:"type:text"`
	Latitude       *float64
	Longitude      *float64
	GeofenceID     *int64    `gorm:"index"`
	DetectedAt     time.Time `gorm:"index"`
}

func (detectionRow) TableName() string { return "detections" }

func detectionFromModel(d *models.Detection) detectionRow {
	row := detectionRow{
		CameraID:       d.CameraID,
		DetectionClass: d.Class,
		Confidence:     d.Confidence,
		BBox:           datatypes.NewJSONType(d.BBox),
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		GeofenceID:     d.ZoneID,
		DetectedAt:     d.DetectedAt,
	}
	if d.SnapshotRef != "" {
		ref := d.SnapshotRef
		row.SnapshotURL = &ref
	}
	return row
}

// zoneRow is the projection used by raw zone queries
type zoneRow struct {
	ID          int64
	Name        string
	ZoneType    string
	Description string
	Color       string
	Properties  datatypes.JSONMap
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	GeoJSON     string  `gorm:"column:geojson"`
	Distance    float64 `gorm:"column:distance"`
}

func datatypesMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
