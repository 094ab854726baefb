package navigator

import (
	"sync"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
)

// ResultFuture is a PendingRoute resolved by the navigator implementation. The listener is
// invoked exactly once, on the goroutine that completes the pair (listener set, result known).
type ResultFuture struct {
	mu       sync.Mutex
	status   da.RouteStatus
	done     bool
	fired    bool
	listener func(da.RouteStatus)
	onCancel func()
	release  func()
}

func NewResultFuture(onCancel func()) *ResultFuture {
	return &ResultFuture{onCancel: onCancel}
}

// WithRelease registers release to run once the future has a result, before the listener
// fires. release runs with the future locked and must not call back into it. WithRelease
// must be called before the future is shared.
func (f *ResultFuture) WithRelease(release func()) *ResultFuture {
	f.release = release
	return f
}

// NewResolvedFuture returns a future that already carries status.
func NewResolvedFuture(status da.RouteStatus) *ResultFuture {
	return &ResultFuture{status: status, done: true}
}

func (f *ResultFuture) SetOnResultListener(listener func(status da.RouteStatus)) {
	f.mu.Lock()
	if f.listener != nil || listener == nil {
		f.mu.Unlock()
		return
	}
	f.listener = listener
	f.fireLocked()
}

// Resolve records the result. Only the first call has an effect; it reports whether it won.
func (f *ResultFuture) Resolve(status da.RouteStatus) bool {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return false
	}
	f.status = status
	f.done = true
	if f.release != nil {
		f.release()
		f.release = nil
	}
	f.fireLocked()
	return true
}

func (f *ResultFuture) Cancel() {
	f.mu.Lock()
	onCancel := f.onCancel
	f.onCancel = nil
	f.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
	f.Resolve(da.ROUTE_CANCELED)
}

// Status returns the result when known.
func (f *ResultFuture) Status() (da.RouteStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.done
}

// fireLocked unlocks f.mu.
func (f *ResultFuture) fireLocked() {
	if !f.done || f.listener == nil || f.fired {
		f.mu.Unlock()
		return
	}
	f.fired = true
	listener, status := f.listener, f.status
	f.mu.Unlock()
	listener(status)
}
