// Package snapshot renders and stores one annotated image per processed
// frame.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tadoba-control-go/internal/models"
)

// Annotator draws detection boxes onto an encoded frame and returns JPEG
type Annotator func(frame []byte, detections []models.Detection, quality int) ([]byte, error)

// ObjectStore persists a rendered snapshot and returns its reference
type ObjectStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Name() string
}

type Service struct {
	annotate Annotator
	store    ObjectStore
	quality  int
	logger   zerolog.Logger
}

func NewService(annotate Annotator, store ObjectStore, quality int, logger zerolog.Logger) *Service {
	return &Service{annotate: annotate, store: store, quality: quality, logger: logger}
}

// FileName builds cam{id}_{YYYYMMDD_HHMMSS_micro}.jpg from the capture time
func FileName(cameraID int64, captured time.Time) string {
	return fmt.Sprintf("cam%d_%s_%06d.jpg", cameraID, captured.Format("20060102_150405"), captured.Nanosecond()/1000)
}

// Create renders one snapshot covering every detection of the frame
func (s *Service) Create(ctx context.Context, cameraID int64, captured time.Time, frame []byte, detections []models.Detection) (string, error) {
	if len(detections) == 0 {
		return "", nil
	}
	img, err := s.annotate(frame, detections, s.quality)
	if err != nil {
		return "", fmt.Errorf("annotate snapshot: %w", err)
	}
	name := FileName(cameraID, captured)
	ref, err := s.store.Save(ctx, name, img)
	if err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	s.logger.Debug().Int64("camera_id", cameraID).Str("ref", ref).Int("boxes", len(detections)).Msg("Snapshot saved")
	return ref, nil
}
