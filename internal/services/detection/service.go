package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"tadoba-control-go/internal/models"
)

// ErrUnavailable covers every way the detector can fail to answer in time
var ErrUnavailable = errors.New("detection service unavailable")

// Service calls a detection model over gRPC. Requests and responses are
// google.protobuf.Struct so the model server's schema stays opaque here.
type Service struct {
	mu      sync.Mutex
	conn    *grpc.ClientConn
	grpcURL string
	method  string
	dialOpt []grpc.DialOption

	isHealthy atomic.Bool
}

type detectResponse struct {
	Detections []models.RawDetection `json:"detections"`
}

func NewService(grpcURL, method string, opts ...grpc.DialOption) (*Service, error) {
	log.Info().Str("url", grpcURL).Str("method", method).Msg("Initializing AI detection service")

	service := &Service{
		grpcURL: grpcURL,
		method:  method,
		dialOpt: append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...),
	}

	// Try to connect, but don't fail if it's not available
	if err := service.connect(); err != nil {
		log.Warn().Err(err).Msg("AI detection service not available, will retry later")
	}

	return service, nil
}

func (s *Service) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}

	conn, err := grpc.NewClient(s.grpcURL, s.dialOpt...)
	if err != nil {
		return fmt.Errorf("failed to connect to detection service: %w", err)
	}

	// Test connection with health check
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{}); err != nil {
		conn.Close()
		return fmt.Errorf("detection service health check failed: %w", err)
	}

	s.conn = conn
	s.isHealthy.Store(true)

	log.Info().Msg("Successfully connected to AI detection service")
	return nil
}

func (s *Service) ensureConnection() (*grpc.ClientConn, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if s.isHealthy.Load() && conn != nil && conn.GetState() != connectivity.Shutdown {
		return conn, nil
	}
	if err := s.connect(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn, nil
}

// Detect runs the model on one frame. Any failure to get an answer,
// including ctx expiring, is reported as ErrUnavailable.
func (s *Service) Detect(ctx context.Context, job models.FrameJob) ([]models.RawDetection, error) {
	conn, err := s.ensureConnection()
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}

	req, err := structpb.NewStruct(map[string]any{
		"camera_id": float64(job.CameraID),
		"frame":     job.Frame,
		"timestamp": job.Timestamp.Key(),
	})
	if err != nil {
		return nil, fmt.Errorf("build detection request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := conn.Invoke(ctx, s.method, req, resp); err != nil {
		if isUnavailable(err) {
			s.isHealthy.Store(false)
			return nil, errors.Join(ErrUnavailable, err)
		}
		return nil, fmt.Errorf("detection call failed: %w", err)
	}

	raw, err := protojson.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("decode detection response: %w", err)
	}
	var out detectResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode detection response: %w", err)
	}
	log.Debug().Int64("camera_id", job.CameraID).Int("detections", len(out.Detections)).Msg("Detection response")
	return out.Detections, nil
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return true
	}
	return false
}

func (s *Service) HealthCheck(ctx context.Context) error {
	conn, err := s.ensureConnection()
	if err != nil {
		return err
	}

	if _, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{}); err != nil {
		s.isHealthy.Store(false)
		return err
	}
	return nil
}

func (s *Service) IsHealthy() bool {
	return s.isHealthy.Load()
}

func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		log.Info().Msg("Shutting down detection service connection")
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
