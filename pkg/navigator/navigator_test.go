package navigator

import (
	"sync"
	"testing"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestResultFutureFiresOnce(t *testing.T) {
	f := NewResultFuture(nil)
	var got []da.RouteStatus
	f.SetOnResultListener(func(s da.RouteStatus) { got = append(got, s) })
	assert.Empty(t, got)

	assert.True(t, f.Resolve(da.OK))
	assert.False(t, f.Resolve(da.NETWORK_ERROR))
	f.Cancel()

	assert.Equal(t, []da.RouteStatus{da.OK}, got)
}

func TestResultFutureListenerAfterResolve(t *testing.T) {
	f := NewResolvedFuture(da.NO_ROUTE_FOUND)
	var got []da.RouteStatus
	f.SetOnResultListener(func(s da.RouteStatus) { got = append(got, s) })
	f.SetOnResultListener(func(s da.RouteStatus) { got = append(got, s) })
	assert.Equal(t, []da.RouteStatus{da.NO_ROUTE_FOUND}, got)
}

func TestResultFutureCancel(t *testing.T) {
	canceled := 0
	f := NewResultFuture(func() { canceled++ })
	f.Cancel()
	f.Cancel()
	assert.Equal(t, 1, canceled)

	status, done := f.Status()
	assert.True(t, done)
	assert.Equal(t, da.ROUTE_CANCELED, status)
}

func TestResultFutureRelease(t *testing.T) {
	released := 0
	f := NewResultFuture(nil).WithRelease(func() { released++ })
	assert.True(t, f.Resolve(da.OK))
	f.Resolve(da.NETWORK_ERROR)
	f.Cancel()
	assert.Equal(t, 1, released)

	canceled, released := 0, 0
	f = NewResultFuture(func() { canceled++ }).WithRelease(func() { released++ })
	f.Cancel()
	assert.Equal(t, 1, canceled)
	assert.Equal(t, 1, released)
}

func TestResultFutureConcurrentResolve(t *testing.T) {
	f := NewResultFuture(nil)
	var mu sync.Mutex
	calls := 0
	f.SetOnResultListener(func(da.RouteStatus) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Resolve(da.RouteStatus(i % 8))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestListenerRegistry(t *testing.T) {
	r := NewListenerRegistry[string]()
	a := r.Add("a")
	b := r.Add("b")
	r.Add("c")

	assert.Equal(t, []string{"a", "b", "c"}, r.Snapshot())
	assert.True(t, r.Remove(b))
	assert.False(t, r.Remove(b))
	assert.Equal(t, []string{"a", "c"}, r.Snapshot())
	assert.True(t, r.Remove(a))
	assert.Equal(t, 1, r.Len())
}

func TestInitErrorMessage(t *testing.T) {
	assert.Equal(t, "Error: User did not accept the Navigation Terms of Use.", InitErrorMessage(TERMS_NOT_ACCEPTED))
	assert.Equal(t, "Error loading the Navigation SDK: 7", InitErrorMessage(InitErrorCode(7)))
}
