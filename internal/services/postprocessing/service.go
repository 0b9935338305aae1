// Package postprocessing turns persisted detections that land inside an
// alerting zone into zone-breach alerts, with per-key cooldown.
package postprocessing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"tadoba-control-go/internal/config"
	"tadoba-control-go/internal/models"
)

// AlertSeverity represents the severity level of alerts
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "LOW"
	AlertSeverityMedium   AlertSeverity = "MEDIUM"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// AlertCooldownKey represents a unique key for alert cooldown tracking
type AlertCooldownKey struct {
	CameraID int64
	ZoneID   int64
	Class    string
}

// String returns a string representation of the cooldown key
func (k AlertCooldownKey) String() string {
	return fmt.Sprintf("%d|%d|%s", k.CameraID, k.ZoneID, k.Class)
}

// Service decides which detections raise a zone-breach alert
type Service struct {
	categories map[models.ZoneCategory]bool
	cooldown   time.Duration
	logger     zerolog.Logger

	cooldownMu sync.RWMutex
	lastSent   map[string]time.Time
	now        func() time.Time
}

func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	s := &Service{
		categories: lo.SliceToMap(cfg.AlertZoneCategories, func(c string) (models.ZoneCategory, bool) {
			return models.ZoneCategory(strings.ToLower(c)), true
		}),
		cooldown: cfg.AlertsCooldown,
		logger:   logger,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}

	logger.Info().
		Strs("zone_categories", cfg.AlertZoneCategories).
		Dur("cooldown", s.cooldown).
		Msg("Post-processing service initialized")
	return s
}

// Evaluate returns the alert for a persisted detection, if one is due.
// The detection must carry its resolved zone.
func (s *Service) Evaluate(d models.Detection, timestamp models.Timestamp) (models.AlertEvent, bool) {
	if d.Zone == nil || d.Latitude == nil || d.Longitude == nil {
		return models.AlertEvent{}, false
	}
	if !s.categories[d.Zone.Category] {
		return models.AlertEvent{}, false
	}

	key := AlertCooldownKey{CameraID: d.CameraID, ZoneID: d.Zone.ID, Class: d.Class}
	if !s.acquire(key) {
		s.logger.Debug().
			Int64("camera_id", d.CameraID).
			Int64("zone_id", d.Zone.ID).
			Str("class", d.Class).
			Msg("Alert blocked by cooldown")
		return models.AlertEvent{}, false
	}

	severity := severityFor(d)
	return models.AlertEvent{
		CameraID:    d.CameraID,
		DetectionID: d.ID,
		Class:       d.Class,
		Confidence:  d.Confidence,
		Zone:        d.Zone.Ref(),
		Latitude:    *d.Latitude,
		Longitude:   *d.Longitude,
		SnapshotRef: d.SnapshotRef,
		Severity:    string(severity),
		Title:       fmt.Sprintf("%s detected in %s zone %s", d.Class, d.Zone.Category, d.Zone.Name),
		DetectedAt:  timestamp,
		Category:    d.Zone.Category,
	}, true
}

func severityFor(d models.Detection) AlertSeverity {
	switch d.Zone.Category {
	case models.ZoneCategoryCore:
		if d.Class == "person" {
			return AlertSeverityCritical
		}
		return AlertSeverityHigh
	case models.ZoneCategoryBuffer:
		return AlertSeverityMedium
	default:
		return AlertSeverityLow
	}
}

// acquire checks and updates the cooldown in one step so concurrent frames
// cannot both pass the check.
func (s *Service) acquire(key AlertCooldownKey) bool {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	now := s.now()
	k := key.String()
	if last, ok := s.lastSent[k]; ok && now.Sub(last) < s.cooldown {
		return false
	}
	s.lastSent[k] = now
	return true
}

// PruneCooldowns drops cooldown entries that have expired
func (s *Service) PruneCooldowns() int {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	now := s.now()
	n := 0
	for k, last := range s.lastSent {
		if now.Sub(last) >= s.cooldown {
			delete(s.lastSent, k)
			n++
		}
	}
	return n
}

// Size is the number of tracked cooldown keys
func (s *Service) Size() int {
	s.cooldownMu.RLock()
	defer s.cooldownMu.RUnlock()
	return len(s.lastSent)
}

// Run prunes expired cooldowns until ctx is cancelled
func (s *Service) Run(ctx context.Context) {
	interval := s.cooldown
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.PruneCooldowns(); n > 0 {
				s.logger.Debug().Int("pruned", n).Msg("Pruned alert cooldowns")
			}
		}
	}
}

// Shutdown stops the service gracefully
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Post-processing service shutdown")
	return nil
}
