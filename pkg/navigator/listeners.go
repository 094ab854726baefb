package navigator

import (
	"sort"
	"sync"
)

// ListenerRegistry keeps listeners in registration order under revocable ids.
type ListenerRegistry[T any] struct {
	mu        sync.RWMutex
	seq       ListenerID
	listeners map[ListenerID]T
}

func NewListenerRegistry[T any]() *ListenerRegistry[T] {
	return &ListenerRegistry[T]{listeners: make(map[ListenerID]T)}
}

func (r *ListenerRegistry[T]) Add(listener T) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.listeners[r.seq] = listener
	return r.seq
}

func (r *ListenerRegistry[T]) Remove(id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listeners[id]; !ok {
		return false
	}
	delete(r.listeners, id)
	return true
}

func (r *ListenerRegistry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// Snapshot returns the listeners in registration order. Callers invoke them without holding
// the registry lock so a listener may remove itself.
func (r *ListenerRegistry[T]) Snapshot() []T {
	r.mu.RLock()
	ids := make([]ListenerID, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = r.listeners[id]
	}
	r.mu.RUnlock()
	return out
}
