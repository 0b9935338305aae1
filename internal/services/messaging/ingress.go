package messaging

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/services/pipeline"
)

// IngressQueue load-balances NATS ingress across control plane replicas
const IngressQueue = "control-plane"

type queueSubscriber interface {
	QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error)
}

type FrameSubmitter interface {
	Submit(ctx context.Context, origin dispatch.Origin, job models.FrameJob) (int, error)
}

type ResultIngester interface {
	Ingest(ctx context.Context, result models.WorkerResult) (pipeline.Outcome, error)
}

// Ingress accepts frames and worker results published on NATS by producers
// that do not hold a websocket. Payloads follow the websocket contract.
type Ingress struct {
	nc      queueSubscriber
	prefix  string
	frames  FrameSubmitter
	results ResultIngester
	logger  zerolog.Logger

	ctx  context.Context
	subs []*nats.Subscription
}

func NewIngress(nc queueSubscriber, prefix string, frames FrameSubmitter, results ResultIngester, logger zerolog.Logger) *Ingress {
	return &Ingress{
		nc:      nc,
		prefix:  prefix,
		frames:  frames,
		results: results,
		logger:  logger,
		ctx:     context.Background(),
	}
}

func (i *Ingress) Start(ctx context.Context) error {
	i.ctx = ctx
	for event, handler := range map[string]func([]byte){
		models.EventFrameIngest:     i.handleFrame,
		models.EventDetectionResult: i.handleResult,
	} {
		subject := Subject(i.prefix, event)
		sub, err := i.nc.QueueSubscribe(subject, IngressQueue, handler)
		if err != nil {
			i.Stop()
			return err
		}
		i.subs = append(i.subs, sub)
		i.logger.Info().Str("subject", subject).Str("queue", IngressQueue).Msg("Subscribed to ingress subject")
	}
	return nil
}

func (i *Ingress) handleFrame(data []byte) {
	var job models.FrameJob
	if err := models.DecodeStrict(data, &job); err != nil {
		i.logger.Warn().Err(err).Msg("Dropping malformed frame from NATS")
		return
	}
	if err := job.Validate(); err != nil {
		i.logger.Warn().Err(err).Msg("Dropping malformed frame from NATS")
		return
	}
	if _, err := i.frames.Submit(i.ctx, nil, job); err != nil && !errors.Is(err, dispatch.ErrNoWorkers) {
		i.logger.Debug().Err(err).Int64("camera_id", job.CameraID).Msg("Frame not dispatched")
	}
}

func (i *Ingress) handleResult(data []byte) {
	var result models.WorkerResult
	if err := models.DecodeStrict(data, &result); err != nil {
		i.logger.Warn().Err(err).Msg("Dropping malformed worker result from NATS")
		return
	}
	if err := result.Validate(); err != nil {
		i.logger.Warn().Err(err).Msg("Dropping malformed worker result from NATS")
		return
	}
	if _, err := i.results.Ingest(i.ctx, result); err != nil {
		i.logger.Error().Err(err).Int64("camera_id", result.CameraID).Msg("Failed to process worker result")
	}
}

func (i *Ingress) Stop() {
	for _, sub := range i.subs {
		if err := sub.Unsubscribe(); err != nil {
			i.logger.Debug().Err(err).Str("subject", sub.Subject).Msg("Unsubscribe failed")
		}
	}
	i.subs = nil
}
