package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/services/fanout"
	"tadoba-control-go/internal/services/pipeline"
	"tadoba-control-go/internal/services/registry"
)

type recordingIngester struct {
	mu      sync.Mutex
	results []models.WorkerResult
	got     chan struct{}
}

func (r *recordingIngester) Ingest(ctx context.Context, result models.WorkerResult) (pipeline.Outcome, error) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
	r.got <- struct{}{}
	return pipeline.Outcome{Received: len(result.Detections)}, nil
}

type harness struct {
	gateway  *Gateway
	registry *registry.Registry
	hub      *fanout.Hub
	ingester *recordingIngester
	url      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New()
	hub := fanout.NewHub(8, zerolog.Nop())
	router := dispatch.NewRouter(reg, registry.WorkerType("yolo_inference"), dispatch.Options{}, zerolog.Nop())
	ingester := &recordingIngester{got: make(chan struct{}, 8)}
	gw := New(reg, router, ingester, hub, Options{SendBuffer: 8, ReadLimit: 1 << 20}, zerolog.Nop())

	engine := gin.New()
	engine.GET("/ws", gw.ServeWS)
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		_ = gw.Shutdown(context.Background())
		srv.Close()
	})

	return &harness{
		gateway:  gw,
		registry: reg,
		hub:      hub,
		ingester: ingester,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

type message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (h *harness) dial(t *testing.T, role string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url+"?role="+role, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	greeting := read(t, conn)
	require.Equal(t, models.EventConnection, greeting.Event)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(models.Envelope{Event: event, Data: data}))
}

func registerWorker(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	conn := h.dial(t, RoleWorker)
	send(t, conn, models.EventWorkerReady, models.WorkerCapability{
		WorkerType:          "yolo_inference",
		Model:               "yolov8n",
		ConfidenceThreshold: 0.5,
	})
	ack := read(t, conn)
	require.Equal(t, models.EventWorkerRegistered, ack.Event)

	var registered models.WorkerRegistered
	require.NoError(t, json.Unmarshal(ack.Data, &registered))
	assert.Equal(t, "registered", registered.Status)
	assert.NotEmpty(t, registered.SID)
	return conn
}

func frame(cameraID int64) map[string]any {
	return map[string]any{
		"camera_id": cameraID,
		"frame":     base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff, 0xd9}),
		"timestamp": "2025-01-02T03:04:05Z",
	}
}

func TestGreetingCarriesSessionID(t *testing.T) {
	h := newHarness(t)
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := read(t, conn)
	assert.Equal(t, models.EventConnection, msg.Event)
	var greeting map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &greeting))
	assert.Equal(t, "connected", greeting["status"])
	assert.NotEmpty(t, greeting["sid"])
}

func TestRejectsUnknownRole(t *testing.T) {
	h := newHarness(t)
	_, resp, err := websocket.DefaultDialer.Dial(h.url+"?role=admin", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestWorkerRegistrationAndDisconnect(t *testing.T) {
	h := newHarness(t)
	conn := registerWorker(t, h)
	assert.Equal(t, 1, h.registry.Len())
	assert.Equal(t, 1, h.gateway.Sessions()[RoleWorker])

	conn.Close()
	assert.Eventually(t, func() bool { return h.registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidCapabilityIsRejected(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, RoleWorker)

	send(t, conn, models.EventWorkerReady, map[string]any{"model": "yolov8n"})
	msg := read(t, conn)
	assert.Equal(t, models.EventError, msg.Event)
	assert.Equal(t, 0, h.registry.Len())
}

func TestFrameWithoutWorkersReturnsSingleError(t *testing.T) {
	h := newHarness(t)
	camera := h.dial(t, RoleCamera)

	send(t, camera, models.EventFrameIngest, frame(7))
	msg := read(t, camera)
	require.Equal(t, models.EventError, msg.Event)

	var body models.ErrorEvent
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "no workers available", body.Message)
}

func TestFrameIsForwardedToWorker(t *testing.T) {
	h := newHarness(t)
	worker := registerWorker(t, h)
	camera := h.dial(t, RoleCamera)

	send(t, camera, models.EventFrameIngest, frame(7))

	msg := read(t, worker)
	require.Equal(t, models.EventFrameIngest, msg.Event)
	var job models.FrameJob
	require.NoError(t, json.Unmarshal(msg.Data, &job))
	assert.Equal(t, int64(7), job.CameraID)
	assert.Equal(t, "2025-01-02T03:04:05Z", job.Timestamp.Raw)
}

func TestDetectionResultReachesPipeline(t *testing.T) {
	h := newHarness(t)
	worker := registerWorker(t, h)

	send(t, worker, models.EventDetectionResult, map[string]any{
		"camera_id": 3,
		"timestamp": "2025-01-02T03:04:05Z",
		"detections": []map[string]any{
			{"class": "tiger", "confidence": 0.9, "bbox": map[string]float64{"x1": 1, "y1": 2, "x2": 30, "y2": 40}},
		},
	})

	select {
	case <-h.ingester.got:
	case <-time.After(2 * time.Second):
		t.Fatal("result was not ingested")
	}
	h.ingester.mu.Lock()
	defer h.ingester.mu.Unlock()
	require.Len(t, h.ingester.results, 1)
	assert.Equal(t, int64(3), h.ingester.results[0].CameraID)
	assert.Len(t, h.ingester.results[0].Detections, 1)
}

func TestUnknownEventGetsError(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t, RoleObserver)

	send(t, conn, "camera:reboot", map[string]any{})
	msg := read(t, conn)
	assert.Equal(t, models.EventError, msg.Event)
}

func TestEventsRestrictedByRole(t *testing.T) {
	h := newHarness(t)
	observer := h.dial(t, RoleObserver)
	worker := registerWorker(t, h)

	cases := []struct {
		name  string
		conn  *websocket.Conn
		event string
		data  any
	}{
		{"observer registers as worker", observer, models.EventWorkerReady, models.WorkerCapability{WorkerType: "yolo_inference"}},
		{"observer injects result", observer, models.EventDetectionResult, map[string]any{
			"camera_id": 3, "timestamp": "2025-01-02T03:04:05Z", "detections": []any{},
		}},
		{"observer sends frame", observer, models.EventFrameIngest, frame(7)},
		{"worker sends frame", worker, models.EventFrameIngest, frame(7)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			send(t, tc.conn, tc.event, tc.data)
			msg := read(t, tc.conn)
			require.Equal(t, models.EventError, msg.Event)

			var body models.ErrorEvent
			require.NoError(t, json.Unmarshal(msg.Data, &body))
			assert.Contains(t, body.Message, "not allowed")
		})
	}

	assert.Equal(t, 1, h.registry.Len())
	h.ingester.mu.Lock()
	defer h.ingester.mu.Unlock()
	assert.Empty(t, h.ingester.results)
}

func TestObserverReceivesPublishedEvents(t *testing.T) {
	h := newHarness(t)
	observer := h.dial(t, RoleObserver)
	require.Eventually(t, func() bool { return h.hub.Observers() == 1 }, time.Second, 10*time.Millisecond)

	h.hub.Publish(models.EventAlertCreated, map[string]any{"camera_id": 1})

	msg := read(t, observer)
	assert.Equal(t, models.EventAlertCreated, msg.Event)
}

func TestWorkersDoNotReceiveBroadcasts(t *testing.T) {
	h := newHarness(t)
	registerWorker(t, h)
	assert.Equal(t, 0, h.hub.Observers())
}
