// Package gateway terminates websocket connections from cameras, workers
// and observers and turns their tagged messages into units of work.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tadoba-control-go/internal/logging"
	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/dispatch"
	"tadoba-control-go/internal/services/fanout"
	"tadoba-control-go/internal/services/pipeline"
	"tadoba-control-go/internal/services/registry"
)

type FrameSubmitter interface {
	Submit(ctx context.Context, origin dispatch.Origin, job models.FrameJob) (int, error)
}

type ResultIngester interface {
	Ingest(ctx context.Context, result models.WorkerResult) (pipeline.Outcome, error)
}

type Options struct {
	SendBuffer   int
	ReadLimit    int64
	PingInterval time.Duration
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Gateway struct {
	registry *registry.Registry
	router   FrameSubmitter
	pipeline ResultIngester
	hub      *fanout.Hub
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

func New(reg *registry.Registry, router FrameSubmitter, ingester ResultIngester, hub *fanout.Hub, opts Options, logger zerolog.Logger) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		registry: reg,
		router:   router,
		pipeline: ingester,
		hub:      hub,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// @Summary Realtime websocket
// @Description Upgrade to a websocket. role is camera, worker or observer (default). Messages are {"event","data"} envelopes.
// @Tags realtime
// @Param role query string false "Connection role" Enums(camera, worker, observer)
// @Success 101
// @Router /ws [get]
func (g *Gateway) ServeWS(c *gin.Context) {
	role := c.DefaultQuery("role", RoleObserver)
	switch role {
	case RoleCamera, RoleWorker, RoleObserver:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be camera, worker or observer"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c).Err(err).Msg("Websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	sess := newSession(id, role, conn, g.opts.SendBuffer, logging.WithSession(g.logger, id, role))

	if role != RoleWorker {
		sub, err := g.hub.Subscribe(id)
		if err != nil {
			conn.Close()
			return
		}
		sess.sub = sub
	}

	g.mu.Lock()
	g.sessions[id] = sess
	g.mu.Unlock()

	sess.logger.Info().Str("remote", c.ClientIP()).Msg("Client connected")
	sess.Send(models.Envelope{Event: models.EventConnection, Data: gin.H{"status": "connected", "sid": id}})

	go sess.writeLoop(g.opts.PingInterval)
	g.readLoop(sess)
}

func (g *Gateway) readLoop(sess *Session) {
	defer g.disconnect(sess)

	if g.opts.ReadLimit > 0 {
		sess.conn.SetReadLimit(g.opts.ReadLimit)
	}
	idle := 2 * g.opts.PingInterval
	if idle > 0 {
		_ = sess.conn.SetReadDeadline(time.Now().Add(idle))
		sess.conn.SetPongHandler(func(string) error {
			return sess.conn.SetReadDeadline(time.Now().Add(idle))
		})
	}

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug().Err(err).Msg("Read failed")
			}
			return
		}
		if idle > 0 {
			_ = sess.conn.SetReadDeadline(time.Now().Add(idle))
		}
		g.handle(sess, data)
	}
}

func (g *Gateway) handle(sess *Session, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
		g.reject(sess, "malformed envelope")
		return
	}

	if role, ok := eventRoles[msg.Event]; ok && sess.role != role {
		g.reject(sess, msg.Event+" is not allowed for role "+sess.role)
		return
	}

	switch msg.Event {
	case models.EventWorkerReady:
		var capability models.WorkerCapability
		if err := decode(msg.Data, &capability); err != nil {
			g.reject(sess, err.Error())
			return
		}
		g.registry.Register(sess, capability)
		sess.logger.Info().
			Str("worker_type", capability.WorkerType).
			Str("model", capability.Model).
			Float64("confidence_threshold", capability.ConfidenceThreshold).
			Int("workers", g.registry.Len()).
			Msg("Worker registered")
		sess.Send(models.Envelope{
			Event: models.EventWorkerRegistered,
			Data:  models.WorkerRegistered{Status: "registered", SID: sess.ID()},
		})

	case models.EventFrameIngest:
		var job models.FrameJob
		if err := decode(msg.Data, &job); err != nil {
			// Undecodable frames are dropped without an event.
			sess.logger.Warn().Err(err).Msg("Dropping malformed frame")
			return
		}
		// Submit is synchronous so frames from this connection keep their order.
		if _, err := g.router.Submit(g.ctx, sess, job); err != nil && !errors.Is(err, dispatch.ErrNoWorkers) {
			sess.logger.Debug().Err(err).Int64("camera_id", job.CameraID).Msg("Frame not dispatched")
		}

	case models.EventDetectionResult:
		var result models.WorkerResult
		if err := decode(msg.Data, &result); err != nil {
			g.reject(sess, err.Error())
			return
		}
		g.tasks.Add(1)
		go func() {
			defer g.tasks.Done()
			if _, err := g.pipeline.Ingest(g.ctx, result); err != nil {
				sess.logger.Error().Err(err).Int64("camera_id", result.CameraID).Msg("Failed to process worker result")
			}
		}()

	default:
		g.reject(sess, "unknown event "+msg.Event)
	}
}

// eventRoles restricts inbound events to the role that may send them
var eventRoles = map[string]string{
	models.EventWorkerReady:     RoleWorker,
	models.EventDetectionResult: RoleWorker,
	models.EventFrameIngest:     RoleCamera,
}

type validator interface {
	Validate() error
}

func decode(raw json.RawMessage, v validator) error {
	if len(raw) == 0 {
		return models.ErrInvalidPayload
	}
	if err := models.DecodeStrict(raw, v); err != nil {
		return err
	}
	return v.Validate()
}

func (g *Gateway) reject(sess *Session, reason string) {
	sess.logger.Warn().Str("reason", reason).Msg("Rejected message")
	sess.Send(models.Envelope{Event: models.EventError, Data: models.ErrorEvent{Message: reason}})
}

func (g *Gateway) disconnect(sess *Session) {
	if capability, ok := g.registry.Unregister(sess.ID()); ok {
		sess.logger.Info().
			Str("worker_type", capability.WorkerType).
			Str("model", capability.Model).
			Int("workers", g.registry.Len()).
			Msg("Worker unregistered")
	}
	g.hub.Unsubscribe(sess.ID())
	sess.Close()

	g.mu.Lock()
	delete(g.sessions, sess.ID())
	g.mu.Unlock()
	sess.logger.Info().Msg("Client disconnected")
}

func (g *Gateway) Sessions() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := map[string]int{RoleCamera: 0, RoleWorker: 0, RoleObserver: 0}
	for _, s := range g.sessions {
		out[s.role]++
	}
	return out
}

// Shutdown closes every session and waits for in-flight results
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.RLock()
	for _, s := range g.sessions {
		s.Close()
	}
	g.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		g.tasks.Wait()
		close(done)
	}()
	defer g.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
