// Package pipeline turns a worker's raw detections for one frame into
// persisted, zone-classified detections and the events observers see.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/storage"
)

var (
	ErrInvalidBox        = errors.New("invalid bounding box")
	ErrInvalidConfidence = errors.New("confidence out of range")
)

// Store is the persistence the pipeline needs
type Store interface {
	storage.DetectionWriter
	storage.CameraReader
}

type ZoneLocator interface {
	FindContainingZone(ctx context.Context, lat, lon float64) (*models.Zone, error)
}

type Snapshotter interface {
	Create(ctx context.Context, cameraID int64, captured time.Time, frame []byte, detections []models.Detection) (string, error)
}

type Alerter interface {
	Evaluate(d models.Detection, timestamp models.Timestamp) (models.AlertEvent, bool)
}

type Publisher interface {
	Publish(event string, payload any) int
}

type FrameRecorder interface {
	RecordFrame(cameraID int64, detections int, latency time.Duration)
}

type FrameSource interface {
	Get(key string) ([]byte, bool)
}

type Detector interface {
	Detect(ctx context.Context, job models.FrameJob) ([]models.RawDetection, error)
}

type Deps struct {
	Store     Store
	Zones     ZoneLocator
	Snapshots Snapshotter   // optional
	Frames    FrameSource   // optional
	Alerts    Alerter       // optional
	Events    Publisher
	Telemetry FrameRecorder // optional
}

// Outcome summarizes one Ingest call
type Outcome struct {
	Received    int    `json:"received"`
	Filtered    int    `json:"filtered"`
	Invalid     int    `json:"invalid"`
	Persisted   int    `json:"persisted"`
	Failed      int    `json:"failed"`
	Alerts      int    `json:"alerts"`
	SnapshotRef string `json:"snapshot_ref,omitempty"`
}

type Pipeline struct {
	deps    Deps
	classes map[int]string
	names   map[string]bool
	sem     *semaphore.Weighted
	logger  zerolog.Logger
	now     func() time.Time
}

func New(deps Deps, classes map[int]string, concurrency int64, logger zerolog.Logger) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	names := make(map[string]bool, len(classes))
	for _, name := range classes {
		names[name] = true
	}
	return &Pipeline{
		deps:    deps,
		classes: classes,
		names:   names,
		sem:     semaphore.NewWeighted(concurrency),
		logger:  logger,
		now:     time.Now,
	}
}

// Ingest processes one worker result. Per-detection failures are logged and
// skipped; the returned error is only set when the frame could not be
// processed at all.
func (p *Pipeline) Ingest(ctx context.Context, result models.WorkerResult) (Outcome, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Outcome{}, fmt.Errorf("pipeline busy: %w", err)
	}
	defer p.sem.Release(1)

	log := logging.WithCamera(p.logger, result.CameraID)
	out := Outcome{Received: len(result.Detections)}
	detectedAt := result.Timestamp.Time
	if detectedAt.IsZero() {
		detectedAt = p.now()
	}

	var camera *models.Camera
	cameraLoaded := false

	accepted := make([]models.Detection, 0, len(result.Detections))
	for i, raw := range result.Detections {
		class, ok := p.classOf(raw)
		if !ok {
			out.Filtered++
			log.Debug().Str("class", raw.Class).Msg("Class not of interest, skipping")
			continue
		}

		box, err := validate(raw)
		if err != nil {
			out.Invalid++
			log.Warn().Err(err).Int("index", i).Str("class", class).Msg("Dropping invalid detection")
			continue
		}

		d := models.Detection{
			CameraID:   result.CameraID,
			Class:      class,
			Confidence: raw.Confidence,
			BBox:       box,
			DetectedAt: detectedAt,
		}

		lat, lon, located := raw.Latitude, raw.Longitude, raw.Latitude != nil && raw.Longitude != nil
		if !located {
			if !cameraLoaded {
				camera = p.loadCamera(ctx, result.CameraID, log)
				cameraLoaded = true
			}
			if camera != nil {
				if clat, clon, ok := camera.Location(); ok {
					lat, lon, located = &clat, &clon, true
				}
			}
		}

		if located {
			d.Latitude, d.Longitude = lat, lon
			zone, err := p.deps.Zones.FindContainingZone(ctx, *lat, *lon)
			if err != nil {
				out.Failed++
				log.Error().Err(err).Str("class", class).Msg("Zone lookup failed, skipping detection")
				continue
			}
			if zone != nil {
				id := zone.ID
				d.ZoneID = &id
				d.Zone = zone
			}
		}
		accepted = append(accepted, d)
	}

	if len(accepted) > 0 {
		out.SnapshotRef = p.snapshot(ctx, result, accepted, log)
	}

	persisted := make([]models.Detection, 0, len(accepted))
	for _, d := range accepted {
		d.SnapshotRef = out.SnapshotRef
		if _, err := p.deps.Store.InsertDetection(ctx, &d); err != nil {
			out.Failed++
			log.Error().Err(err).Str("class", d.Class).Msg("Failed to persist detection")
			continue
		}
		persisted = append(persisted, d)
		out.Persisted++

		p.deps.Events.Publish(models.EventDetectionCreated, d)

		if p.deps.Alerts != nil {
			if alert, ok := p.deps.Alerts.Evaluate(d, result.Timestamp); ok {
				p.deps.Events.Publish(models.EventAlertCreated, alert)
				out.Alerts++
			}
		}
	}

	latency := p.now().Sub(detectedAt)
	if latency < 0 {
		latency = 0
	}
	p.deps.Events.Publish(models.EventFrameProcessed, models.FrameProcessedEvent{
		CameraID:         result.CameraID,
		Timestamp:        result.Timestamp,
		DetectionsCount:  len(persisted),
		ProcessingTimeMs: latency.Milliseconds(),
		Detections:       persisted,
	})
	if p.deps.Telemetry != nil {
		p.deps.Telemetry.RecordFrame(result.CameraID, len(persisted), latency)
	}

	log.Debug().
		Int("received", out.Received).
		Int("persisted", out.Persisted).
		Int("alerts", out.Alerts).
		Dur("latency", latency).
		Msg("Frame processed")
	return out, nil
}

// DetectAndIngest runs the synchronous detector on a frame and feeds the
// answer through Ingest. A detector that does not answer within timeout is
// treated exactly like having no workers.
func (p *Pipeline) DetectAndIngest(ctx context.Context, detector Detector, job models.FrameJob, timeout time.Duration) (Outcome, error) {
	if detector == nil {
		return Outcome{}, dispatch.ErrNoWorkers
	}
	if _, err := dispatch.DecodeImage(job.Frame); err != nil {
		return Outcome{}, errors.Join(dispatch.ErrInvalidFrame, err)
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	raw, err := detector.Detect(callCtx, job)
	if err != nil {
		p.logger.Warn().Err(err).Int64("camera_id", job.CameraID).Msg("Detector call failed")
		return Outcome{}, errors.Join(dispatch.ErrNoWorkers, err)
	}

	return p.Ingest(ctx, models.WorkerResult{
		CameraID:   job.CameraID,
		ZoneHint:   job.ZoneHint,
		Detections: raw,
		Timestamp:  job.Timestamp,
		Frame:      job.Frame,
	})
}

// classOf resolves the class name if the detection is of interest
func (p *Pipeline) classOf(raw models.RawDetection) (string, bool) {
	if raw.ClassID != nil {
		if name, ok := p.classes[*raw.ClassID]; ok {
			return name, true
		}
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(raw.Class))
	if name == "" || !p.names[name] {
		return "", false
	}
	return name, true
}

func validate(raw models.RawDetection) (models.BBox, error) {
	c := raw.Confidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return models.BBox{}, fmt.Errorf("%w: %v", ErrInvalidConfidence, c)
	}
	b := raw.BBox
	for _, v := range []float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.BBox{}, fmt.Errorf("%w: non-finite coordinate", ErrInvalidBox)
		}
	}
	if b.X2 < b.X1 || b.Y2 < b.Y1 {
		return models.BBox{}, fmt.Errorf("%w: (%v,%v)-(%v,%v)", ErrInvalidBox, b.X1, b.Y1, b.X2, b.Y2)
	}
	return models.BoxFromCorners(b.X1, b.Y1, b.X2, b.Y2), nil
}

func (p *Pipeline) loadCamera(ctx context.Context, id int64, log zerolog.Logger) *models.Camera {
	cam, err := p.deps.Store.GetCamera(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("Camera lookup failed, detections will have no location")
		}
		return nil
	}
	return &cam
}

// snapshot renders one artifact for the frame. Failures leave the
// reference empty and never block persistence.
func (p *Pipeline) snapshot(ctx context.Context, result models.WorkerResult, dets []models.Detection, log zerolog.Logger) string {
	if p.deps.Snapshots == nil {
		return ""
	}
	frame := p.frameFor(result)
	if frame == nil {
		log.Debug().Msg("No frame available for snapshot")
		return ""
	}
	captured := result.Timestamp.Time
	if captured.IsZero() {
		captured = p.now()
	}
	ref, err := p.deps.Snapshots.Create(ctx, result.CameraID, captured, frame, dets)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save snapshot")
		return ""
	}
	return ref
}

func (p *Pipeline) frameFor(result models.WorkerResult) []byte {
	if result.Frame != "" {
		if data, err := dispatch.DecodeImage(result.Frame); err == nil {
			return data
		}
	}
	if p.deps.Frames == nil {
		return nil
	}
	data, ok := p.deps.Frames.Get(dispatch.FrameKey(result.CameraID, result.Timestamp.Key()))
	if !ok {
		return nil
	}
	return data
}
