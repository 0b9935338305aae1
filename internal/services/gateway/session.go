package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tadoba-control-go/internal/models"
	"tadoba-control-go/internal/services/fanout"
)

// Connection roles
const (
	RoleCamera   = "camera"
	RoleWorker   = "worker"
	RoleObserver = "observer"
)

// Session is one websocket connection. All writes go through a bounded
// queue drained by a single writer goroutine.
type Session struct {
	id   string
	role string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
	done   chan struct{}

	sub    *fanout.Subscription
	logger zerolog.Logger
}

func newSession(id, role string, conn *websocket.Conn, buffer int, logger zerolog.Logger) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	return &Session{
		id:     id,
		role:   role,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Role() string { return s.role }

// Send enqueues an envelope without blocking. It returns false when the
// queue is full or the session is closed.
func (s *Session) Send(env models.Envelope) bool {
	payload, err := json.Marshal(env)
	if err != nil {
		s.logger.Error().Err(err).Str("event", env.Event).Msg("Failed to encode envelope")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// writeLoop owns all writes to the socket
func (s *Session) writeLoop(pingInterval time.Duration) {
	var ticker *time.Ticker
	var tick <-chan time.Time
	if pingInterval > 0 {
		ticker = time.NewTicker(pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var events <-chan models.Envelope
	if s.sub != nil {
		events = s.sub.C
	}

	defer s.conn.Close()
	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case payload := <-s.send:
			if err := s.write(payload); err != nil {
				s.logger.Debug().Err(err).Msg("Write failed, closing session")
				s.Close()
				return
			}
		case env, ok := <-events:
			if !ok {
				if s.sub.Evicted() {
					s.logger.Warn().Msg("Observer too slow, disconnecting")
				}
				s.Close()
				return
			}
			payload, err := json.Marshal(env)
			if err != nil {
				s.logger.Error().Err(err).Str("event", env.Event).Msg("Failed to encode event")
				continue
			}
			if err := s.write(payload); err != nil {
				s.Close()
				return
			}
		case <-tick:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				s.Close()
				return
			}
		}
	}
}

func (s *Session) write(payload []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}
