package concurrent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrLooperClosed = errors.New("looper is closed")

// Looper runs posted jobs one at a time, in order, on a single goroutine. State owned by
// the loop needs no locking as long as it is only touched from jobs.
type Looper struct {
	name string
	log  *zap.Logger

	mu      sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
	started sync.Once
}

func NewLooper(name string, log *zap.Logger) *Looper {
	return &Looper{
		name:    name,
		log:     log,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling it more than once has no effect.
func (l *Looper) Start() {
	l.started.Do(func() {
		go l.run()
	})
}

func (l *Looper) run() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		if len(l.queue) == 0 && l.closed {
			l.mu.Unlock()
			return
		}
		job := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(job)
	}
}

func (l *Looper) execute(job func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error("looper job panicked", zap.String("looper", l.name), zap.Any("panic", rec))
		}
	}()
	job()
}

// Post enqueues job without waiting. It never blocks, so it is safe to call from a job.
// It returns false once the looper is closed.
func (l *Looper) Post(job func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, job)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

const (
	jobQueued int32 = iota
	jobRunning
	jobAbandoned
)

// Call runs job on the loop and waits for its result. It must not be called from a job.
// When ctx ends before the job starts, the job is dropped and ctx.Err() is returned; once
// the job has started, Call waits for it to finish.
func (l *Looper) Call(ctx context.Context, job func() error) error {
	var state atomic.Int32
	done := make(chan error, 1)
	ok := l.Post(func() {
		if !state.CompareAndSwap(jobQueued, jobRunning) {
			return
		}
		var err error
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%s: job panicked: %v", l.name, rec)
			}
			done <- err
		}()
		err = job()
	})
	if !ok {
		return ErrLooperClosed
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if state.CompareAndSwap(jobQueued, jobAbandoned) {
			return ctx.Err()
		}
		return <-done
	}
}

// Close stops accepting jobs, lets the queued ones finish and waits for the loop to exit.
func (l *Looper) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.stopped
		return
	}
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	l.Start()
	<-l.stopped
}

func (l *Looper) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
