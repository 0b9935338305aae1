package detection

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"tadoba-control-go/internal/models"
)

const method = "/detection.DetectionService/InferDetection"

func startServer(t *testing.T, handler grpc.StreamHandler) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(handler))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis
}

func dialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestDetectDecodesStructResponse(t *testing.T) {
	lis := startServer(t, func(_ any, stream grpc.ServerStream) error {
		req := &structpb.Struct{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		resp, err := structpb.NewStruct(map[string]any{
			"camera_id": req.Fields["camera_id"].GetNumberValue(),
			"detections": []any{
				map[string]any{
					"class":      "person",
					"confidence": 0.95,
					"bbox":       map[string]any{"x1": 100.0, "y1": 200.0, "x2": 150.0, "y2": 280.0},
				},
			},
		})
		if err != nil {
			return err
		}
		return stream.SendMsg(resp)
	})

	svc, err := NewService("passthrough:///bufnet", method, dialer(lis))
	require.NoError(t, err)
	defer svc.Shutdown(context.Background())
	require.True(t, svc.IsHealthy())

	dets, err := svc.Detect(context.Background(), models.FrameJob{CameraID: 1, Frame: "aGk=", Timestamp: models.NewTimestamp(time.Now())})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "person", dets[0].Class)
	assert.Equal(t, 150.0, dets[0].BBox.X2)
}

func TestDetectTimeoutIsUnavailable(t *testing.T) {
	lis := startServer(t, func(_ any, stream grpc.ServerStream) error {
		<-stream.Context().Done()
		return stream.Context().Err()
	})

	svc, err := NewService("passthrough:///bufnet", method, dialer(lis))
	require.NoError(t, err)
	defer svc.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = svc.Detect(ctx, models.FrameJob{CameraID: 1, Frame: "aGk="})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, svc.IsHealthy())
}
