package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
)

type fakeConn struct{ id string }

func (f fakeConn) ID() string { return f.id }
func (f fakeConn) Send(models.Envelope) bool { return true }

var yolo = models.WorkerCapability{WorkerType: "yolo_inference", Model: "yolov8n", ConfidenceThreshold: 0.5}

func TestTwoWorkersOneDisconnects(t *testing.T) {
	r := New()
	r.Register(fakeConn{"a"}, yolo)
	r.Register(fakeConn{"b"}, yolo)
	require.Equal(t, 2, r.CountEligible(WorkerType("yolo_inference")))

	capability, ok := r.Unregister("a")
	require.True(t, ok)
	assert.Equal(t, "yolov8n", capability.Model)
	assert.Equal(t, 1, r.CountEligible(WorkerType("yolo_inference")))
}

func TestUnknownDisconnectIsNoop(t *testing.T) {
	r := New()
	r.Register(fakeConn{"a"}, yolo)

	_, ok := r.Unregister("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestReRegisterReplaces(t *testing.T) {
	r := New()
	r.Register(fakeConn{"a"}, yolo)
	r.Register(fakeConn{"a"}, models.WorkerCapability{WorkerType: "yolo_inference", Model: "yolov8s"})

	require.Equal(t, 1, r.Len())
	assert.Equal(t, "yolov8s", r.List()[0].Capability.Model)
}

func TestPredicateFilters(t *testing.T) {
	r := New()
	r.Register(fakeConn{"a"}, yolo)
	r.Register(fakeConn{"b"}, models.WorkerCapability{WorkerType: "ocr"})

	assert.Equal(t, 1, r.CountEligible(WorkerType("yolo_inference")))
	eligible := r.Eligible(WorkerType("ocr"))
	require.Len(t, eligible, 1)
	assert.Equal(t, "b", eligible[0].Conn.ID())
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("w%d", n)
			r.Register(fakeConn{id}, yolo)
			_ = r.CountEligible(WorkerType("yolo_inference"))
			if n%2 == 0 {
				r.Unregister(id)
			}
		}(n)
	}
	wg.Wait()
	assert.Equal(t, 25, r.Len())
}
