package concurrent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLooperRunsJobsInOrder(t *testing.T) {
	l := NewLooper("test", zap.NewNop())
	l.Start()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	var snapshot []int
	require.NoError(t, l.Call(context.Background(), func() error {
		snapshot = append(snapshot, got...)
		return nil
	}))

	require.Len(t, snapshot, 100)
	for i, v := range snapshot {
		assert.Equal(t, i, v)
	}
}

func TestLooperPostFromJob(t *testing.T) {
	l := NewLooper("test", zap.NewNop())
	l.Start()
	defer l.Close()

	var order []string
	err := l.Call(context.Background(), func() error {
		l.Post(func() { order = append(order, "posted") })
		order = append(order, "job")
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, l.Call(context.Background(), func() error { return nil }))
	assert.Equal(t, []string{"job", "posted"}, order)
}

func TestLooperCallReturnsJobError(t *testing.T) {
	l := NewLooper("test", zap.NewNop())
	l.Start()
	defer l.Close()

	want := errors.New("boom")
	assert.ErrorIs(t, l.Call(context.Background(), func() error { return want }), want)

	err := l.Call(context.Background(), func() error { panic("bad job") })
	assert.ErrorContains(t, err, "bad job")

	// the loop survives a panicking job
	assert.NoError(t, l.Call(context.Background(), func() error { return nil }))
}

func TestLooperCallContextCanceled(t *testing.T) {
	l := NewLooper("test", zap.NewNop())
	l.Start()
	defer l.Close()

	release := make(chan struct{})
	l.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := false
	err := l.Call(ctx, func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)

	// the abandoned job is dropped
	require.NoError(t, l.Call(context.Background(), func() error { return nil }))
	assert.False(t, ran)
}

func TestLooperCallWaitsForStartedJob(t *testing.T) {
	l := NewLooper("test", zap.NewNop())
	l.Start()
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	finish := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- l.Call(ctx, func() error {
			close(started)
			<-finish
			return nil
		})
	}()

	<-started
	cancel()
	close(finish)
	assert.NoError(t, <-result)
}

func TestLooperClose(t *testing.T) {
	l := NewLooper("test", zap.NewNop())
	l.Start()

	ran := false
	l.Post(func() { ran = true })
	l.Close()
	l.Close()

	assert.True(t, ran)
	assert.True(t, l.IsClosed())
	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() error { return nil }), ErrLooperClosed)
}
