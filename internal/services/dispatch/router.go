// Package dispatch admits camera frames and forwards them to detection
// workers.
package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/registry"
)

var (
	ErrNoWorkers    = errors.New("no workers available")
	ErrInvalidFrame = errors.New("invalid frame")
	ErrRateLimited  = errors.New("frame rate limit exceeded")
)

// Origin is the connection a frame arrived on; capacity errors go back to it
type Origin interface {
	ID() string
	Send(env models.Envelope) bool
}

// WorkerSource is the part of the registry the router reads
type WorkerSource interface {
	CountEligible(pred registry.Predicate) int
	Eligible(pred registry.Predicate) []registry.Registration
}

type Options struct {
	RateLimit float64 // frames per second per camera, 0 disables
	RateBurst int
	Cache     *FrameCache
}

// Router broadcasts each admitted frame to every eligible worker. Frames are
// never queued: with no eligible worker the frame is refused immediately.
type Router struct {
	workers  WorkerSource
	isWorker registry.Predicate
	cache    *FrameCache
	logger   zerolog.Logger

	rateLimit rate.Limit
	rateBurst int
	limiters  sync.Map // camera id -> *rate.Limiter
	order     sync.Map // camera id -> *sync.Mutex

	submitted atomic.Uint64
	forwarded atomic.Uint64
	rejected  atomic.Uint64
	dropped   atomic.Uint64
}

func NewRouter(workers WorkerSource, isWorker registry.Predicate, opts Options, logger zerolog.Logger) *Router {
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Router{
		workers:   workers,
		isWorker:  isWorker,
		cache:     opts.Cache,
		logger:    logger,
		rateLimit: rate.Limit(opts.RateLimit),
		rateBurst: burst,
	}
}

// Submit validates and forwards one frame. It returns the number of workers
// the frame was handed to. When no worker is eligible or none accepts the
// frame, exactly one error envelope is sent to origin (if any) and
// ErrNoWorkers is returned. Admission is checked before the rate limit.
func (r *Router) Submit(ctx context.Context, origin Origin, job models.FrameJob) (int, error) {
	r.submitted.Add(1)
	log := logging.WithCamera(r.logger, job.CameraID)

	data, err := decodeFrame(job)
	if err != nil {
		r.dropped.Add(1)
		log.Warn().Err(err).Msg("Dropping undecodable frame")
		return 0, err
	}

	if r.workers.CountEligible(r.isWorker) == 0 {
		log.Warn().Msg("No inference workers available")
		return 0, r.refuse(origin)
	}

	if !r.allow(job.CameraID) {
		r.dropped.Add(1)
		log.Debug().Msg("Frame rate limit exceeded, dropping frame")
		return 0, ErrRateLimited
	}

	r.cache.Put(FrameKey(job.CameraID, job.Timestamp.Key()), data)

	// Per-camera receipt order is kept by serializing forwards per camera.
	mu := r.cameraLock(job.CameraID)
	mu.Lock()
	defer mu.Unlock()

	env := models.Envelope{Event: models.EventFrameIngest, Data: job}
	sent := 0
	for _, w := range r.workers.Eligible(r.isWorker) {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if w.Conn.Send(env) {
			sent++
			continue
		}
		log.Warn().Str("worker", w.Conn.ID()).Msg("Worker send queue full, frame skipped for worker")
	}
	if sent == 0 {
		// Every eligible worker was saturated or went away mid-dispatch.
		log.Warn().Msg("No eligible worker accepted the frame")
		return 0, r.refuse(origin)
	}
	r.forwarded.Add(1)
	log.Debug().Int("workers", sent).Msg("Frame dispatched")
	return sent, nil
}

// refuse reports a capacity failure to the frame's origin
func (r *Router) refuse(origin Origin) error {
	r.rejected.Add(1)
	if origin != nil {
		origin.Send(models.Envelope{
			Event: models.EventError,
			Data:  models.ErrorEvent{Message: ErrNoWorkers.Error()},
		})
	}
	return ErrNoWorkers
}

func (r *Router) allow(cameraID int64) bool {
	if r.rateLimit <= 0 {
		return true
	}
	l, _ := r.limiters.LoadOrStore(cameraID, rate.NewLimiter(r.rateLimit, r.rateBurst))
	return l.(*rate.Limiter).Allow()
}

func (r *Router) cameraLock(cameraID int64) *sync.Mutex {
	mu, _ := r.order.LoadOrStore(cameraID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Cache exposes the frame cache for result correlation
func (r *Router) Cache() *FrameCache {
	return r.cache
}

type Stats struct {
	Submitted uint64 `json:"submitted"`
	Forwarded uint64 `json:"forwarded"`
	Rejected  uint64 `json:"rejected_no_workers"`
	Dropped   uint64 `json:"dropped"`
	Cached    int    `json:"cached_frames"`
}

func (r *Router) Stats() Stats {
	return Stats{
		Submitted: r.submitted.Load(),
		Forwarded: r.forwarded.Load(),
		Rejected:  r.rejected.Load(),
		Dropped:   r.dropped.Load(),
		Cached:    r.cache.Len(),
	}
}

// DecodeImage accepts raw base64 or a data URL
func DecodeImage(frame string) ([]byte, error) {
	payload := frame
	if strings.HasPrefix(payload, "data:") {
		if _, after, ok := strings.Cut(payload, ","); ok {
			payload = after
		}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

func decodeFrame(job models.FrameJob) ([]byte, error) {
	if job.CameraID <= 0 {
		return nil, errors.Join(ErrInvalidFrame, errors.New("missing camera_id"))
	}
	if job.Frame == "" {
		return nil, errors.Join(ErrInvalidFrame, errors.New("missing frame"))
	}
	data, err := DecodeImage(job.Frame)
	if err != nil {
		return nil, errors.Join(ErrInvalidFrame, err)
	}
	return data, nil
}
