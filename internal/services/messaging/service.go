package messaging

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"tadoba-control-go/internal/config"
	"tadoba-control-go/internal/models"
)

// Service mirrors outbound events onto NATS and can accept frames published
// by cameras that do not hold a websocket.
type Service struct {
	conn   *nats.Conn
	cfg    *config.Config
	prefix string
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name("tadoba-control-" + cfg.InstanceID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", cfg.NatsURL).Msg("NATS connection established")

	return &Service{
		conn:   conn,
		cfg:    cfg,
		prefix: cfg.NatsSubjectPrefix,
	}, nil
}

// Subject maps an event name onto a NATS subject, e.g.
// "detection:created" -> "surveillance.detection.created".
func Subject(prefix, event string) string {
	s := strings.ReplaceAll(event, ":", ".")
	if prefix == "" {
		return s
	}
	return prefix + "." + s
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.conn.Publish(subject, payload)
}

// Mirror publishes an outbound event under the configured prefix
func (s *Service) Mirror(env models.Envelope) error {
	return s.Publish(Subject(s.prefix, env.Event), env.Data)
}

func (s *Service) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

func (s *Service) QueueSubscribe(subject, queue string, handler func([]byte)) (*nats.Subscription, error) {
	return s.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

func (s *Service) Name() string { return "nats" }

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn != nil {
		// Try graceful drain with timeout, fallback to immediate close
		if err := s.conn.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
			s.conn.Close()
		}
	}
	return nil
}
