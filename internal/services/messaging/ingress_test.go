package messaging

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/services/pipeline"
)

type fakeQueue struct {
	handlers map[string]func([]byte)
	queues   map[string]string
}

func (f *fakeQueue) QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error) {
	f.handlers[subject] = handler
	f.queues[subject] = queue
	return &nats.Subscription{Subject: subject}, nil
}

type recordingSubmitter struct {
	jobs []models.FrameJob
}

func (r *recordingSubmitter) Submit(ctx context.Context, origin dispatch.Origin, job models.FrameJob) (int, error) {
	r.jobs = append(r.jobs, job)
	return 0, dispatch.ErrNoWorkers
}

type recordingIngester struct {
	results []models.WorkerResult
}

func (r *recordingIngester) Ingest(ctx context.Context, result models.WorkerResult) (pipeline.Outcome, error) {
	r.results = append(r.results, result)
	return pipeline.Outcome{}, nil
}

func startIngress(t *testing.T) (*fakeQueue, *recordingSubmitter, *recordingIngester, *Ingress) {
	t.Helper()
	q := &fakeQueue{handlers: map[string]func([]byte){}, queues: map[string]string{}}
	frames := &recordingSubmitter{}
	results := &recordingIngester{}
	in := NewIngress(q, "surveillance", frames, results, zerolog.Nop())
	require.NoError(t, in.Start(context.Background()))
	t.Cleanup(in.Stop)
	return q, frames, results, in
}

func TestIngressSubscribesWithQueueGroup(t *testing.T) {
	q, _, _, _ := startIngress(t)

	assert.Equal(t, IngressQueue, q.queues["surveillance.frame.ingest"])
	assert.Equal(t, IngressQueue, q.queues["surveillance.detection.result"])
}

func TestIngressForwardsFrames(t *testing.T) {
	q, frames, _, _ := startIngress(t)
	handle := q.handlers["surveillance.frame.ingest"]

	handle([]byte(`{"camera_id":2,"frame":"/9j/","timestamp":"2025-01-02T03:04:05Z"}`))
	handle([]byte(`{"camera_id":2}`))
	handle([]byte(`{"camera_id":2,"frame":"/9j/","bogus":1}`))

	require.Len(t, frames.jobs, 1)
	assert.Equal(t, int64(2), frames.jobs[0].CameraID)
}

func TestIngressForwardsResults(t *testing.T) {
	q, _, results, _ := startIngress(t)
	handle := q.handlers["surveillance.detection.result"]

	handle([]byte(`{"camera_id":4,"timestamp":1735787045,"detections":[]}`))
	handle([]byte(`not json`))

	require.Len(t, results.results, 1)
	assert.Equal(t, int64(4), results.results[0].CameraID)
}
