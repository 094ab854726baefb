package orchestrator

import "sync"

// Subscription is an owned listener registration. Close detaches it exactly once.
type Subscription struct {
	once   sync.Once
	detach func()
	closed bool
	mu     sync.Mutex
}

func newSubscription(detach func()) *Subscription {
	return &Subscription{detach: detach}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.detach()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
}

func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
