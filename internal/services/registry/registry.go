// Package registry tracks the detection workers currently connected to the
// control plane.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"tadoba-control-go/internal/models"
)

// Conn is the minimal view of a worker connection the registry needs
type Conn interface {
	ID() string
	Send(env models.Envelope) bool
}

// Registration is a process-local record bound to a connection's lifetime
type Registration struct {
	Conn         Conn
	Capability   models.WorkerCapability
	RegisteredAt time.Time
}

// Predicate selects registrations by capability
type Predicate func(models.WorkerCapability) bool

// WorkerType matches workers that declared the given worker type
func WorkerType(workerType string) Predicate {
	return func(c models.WorkerCapability) bool {
		return c.WorkerType == workerType
	}
}

// Registry is keyed by connection id. A connection holds at most one
// registration; re-registering replaces the previous capability.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]Registration
}

func New() *Registry {
	return &Registry{workers: make(map[string]Registration)}
}

func (r *Registry) Register(conn Conn, capability models.WorkerCapability) Registration {
	reg := Registration{Conn: conn, Capability: capability, RegisteredAt: time.Now()}
	r.mu.Lock()
	r.workers[conn.ID()] = reg
	r.mu.Unlock()
	return reg
}

// Unregister removes the worker for the connection id. Unknown ids are a no-op.
func (r *Registry) Unregister(connID string) (models.WorkerCapability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.workers[connID]
	if !ok {
		return models.WorkerCapability{}, false
	}
	delete(r.workers, connID)
	return reg.Capability, true
}

func (r *Registry) CountEligible(pred Predicate) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.CountBy(lo.Values(r.workers), func(reg Registration) bool {
		return pred(reg.Capability)
	})
}

// Eligible returns the matching registrations ordered by registration time
func (r *Registry) Eligible(pred Predicate) []Registration {
	r.mu.RLock()
	out := lo.Filter(lo.Values(r.workers), func(reg Registration, _ int) bool {
		return pred(reg.Capability)
	})
	r.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].RegisteredAt.Before(out[b].RegisteredAt) })
	return out
}

func (r *Registry) List() []Registration {
	return r.Eligible(func(models.WorkerCapability) bool { return true })
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
