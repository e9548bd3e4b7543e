package supervisor

import (
	"fmt"
	"sync"
)

// Registry is the ordered, lock-guarded collection of managed processes.
// Insertion order is startup order; shutdown walks it in reverse. It is the
// only shared mutable state between the liveness monitor and the shutdown
// coordinator, so every add, remove and iterating read holds the lock.
type Registry struct {
	mu      sync.Mutex
	entries []*Managed
}

func NewRegistry() *Registry { return &Registry{} }

// Add appends m in startup order. Names and ports must be unique across
// the registry.
func (r *Registry) Add(m *Managed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Spec.Name == m.Spec.Name {
			return fmt.Errorf("duplicate service name %q", m.Spec.Name)
		}
		if e.Spec.Port == m.Spec.Port {
			return fmt.Errorf("duplicate port %d (%s, %s)", m.Spec.Port, e.Spec.Name, m.Spec.Name)
		}
	}
	r.entries = append(r.entries, m)
	return nil
}

// Remove deletes the named entry, preserving order. Returns false when the
// entry was already removed, which makes removal exactly-once for callers.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.Spec.Name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns the entries in startup order.
func (r *Registry) Snapshot() []*Managed {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Managed, len(r.entries))
	copy(out, r.entries)
	return out
}

// SnapshotReverse returns the entries in reverse startup order, the order
// the shutdown coordinator signals them in.
func (r *Registry) SnapshotReverse() []*Managed {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Managed, len(r.entries))
	for i, e := range r.entries {
		out[len(r.entries)-1-i] = e
	}
	return out
}
