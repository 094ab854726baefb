package orchestrator

import (
	"fmt"
	"sync"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/navigator"
)

// fakeNavigator records every call made by the orchestrator. Route results are delivered by
// the test through resolve.
type fakeNavigator struct {
	mu       sync.Mutex
	calls    []string
	futures  []*navigator.ResultFuture
	arrival  *navigator.ListenerRegistry[navigator.ArrivalListener]
	changed  *navigator.ListenerRegistry[navigator.RouteChangedListener]
	guidance bool
}

func newFakeNavigator() *fakeNavigator {
	return &fakeNavigator{
		arrival: navigator.NewListenerRegistry[navigator.ArrivalListener](),
		changed: navigator.NewListenerRegistry[navigator.RouteChangedListener](),
	}
}

func (f *fakeNavigator) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeNavigator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeNavigator) Count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name || len(c) > len(name) && c[:len(name)+1] == name+"(" {
			n++
		}
	}
	return n
}

func (f *fakeNavigator) newFuture() *navigator.ResultFuture {
	future := navigator.NewResultFuture(nil)
	f.mu.Lock()
	f.futures = append(f.futures, future)
	f.mu.Unlock()
	return future
}

// resolve delivers status for the most recent submission.
func (f *fakeNavigator) resolve(status da.RouteStatus) bool {
	f.mu.Lock()
	future := f.futures[len(f.futures)-1]
	f.mu.Unlock()
	return future.Resolve(status)
}

func (f *fakeNavigator) fireArrival(event da.ArrivalEvent) {
	for _, l := range f.arrival.Snapshot() {
		l(event)
	}
}

func (f *fakeNavigator) fireRouteChanged(event da.RouteChangedEvent) {
	for _, l := range f.changed.Snapshot() {
		l(event)
	}
}

func (f *fakeNavigator) SetDestination(destination da.Waypoint, _ *da.RoutingOptions,
	_ *da.DisplayOptions) navigator.PendingRoute {
	f.record("SetDestination(%s)", destination.Key())
	return f.newFuture()
}

func (f *fakeNavigator) SetDestinations(destinations []da.Waypoint, _ *da.RoutingOptions,
	_ *da.DisplayOptions) navigator.PendingRoute {
	f.record("SetDestinations(%d)", len(destinations))
	return f.newFuture()
}

func (f *fakeNavigator) SetDestinationsWithToken(destinations []da.Waypoint, cro da.CustomRoutesOptions,
	_ *da.DisplayOptions) navigator.PendingRoute {
	f.record("SetDestinationsWithToken(%d,%s)", len(destinations), cro.GetRouteToken())
	return f.newFuture()
}

func (f *fakeNavigator) ClearDestinations() {
	f.record("ClearDestinations")
}

func (f *fakeNavigator) ContinueToNextDestination() (da.Waypoint, bool) {
	f.record("ContinueToNextDestination")
	return da.Waypoint{}, false
}

func (f *fakeNavigator) StartGuidance() bool {
	f.record("StartGuidance")
	f.mu.Lock()
	f.guidance = true
	f.mu.Unlock()
	return true
}

func (f *fakeNavigator) StopGuidance() {
	f.record("StopGuidance")
	f.mu.Lock()
	f.guidance = false
	f.mu.Unlock()
}

func (f *fakeNavigator) IsGuidanceRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guidance
}

func (f *fakeNavigator) SetAudioGuidance(mode navigator.AudioGuidance) {
	f.record("SetAudioGuidance(%s)", mode)
}

func (f *fakeNavigator) SetTaskRemovedBehavior(behavior navigator.TaskRemovedBehavior) {
	f.record("SetTaskRemovedBehavior(%d)", behavior)
}

func (f *fakeNavigator) AddArrivalListener(listener navigator.ArrivalListener) navigator.ListenerID {
	f.record("AddArrivalListener")
	return f.arrival.Add(listener)
}

func (f *fakeNavigator) RemoveArrivalListener(id navigator.ListenerID) bool {
	f.record("RemoveArrivalListener")
	return f.arrival.Remove(id)
}

func (f *fakeNavigator) AddRouteChangedListener(listener navigator.RouteChangedListener) navigator.ListenerID {
	f.record("AddRouteChangedListener")
	return f.changed.Add(listener)
}

func (f *fakeNavigator) RemoveRouteChangedListener(id navigator.ListenerID) bool {
	f.record("RemoveRouteChangedListener")
	return f.changed.Remove(id)
}

func (f *fakeNavigator) Simulator() navigator.Simulator {
	return fakeSimulator{f}
}

type fakeSimulator struct {
	f *fakeNavigator
}

func (s fakeSimulator) SetUserLocation(location da.Coordinate) {
	s.f.record("SetUserLocation(%s)", location)
}

func (s fakeSimulator) UnsetUserLocation() {
	s.f.record("UnsetUserLocation")
}

func (s fakeSimulator) SimulateLocationsAlongExistingRoute(options da.SimulationOptions) {
	s.f.record("SimulateLocationsAlongExistingRoute(%g)", options.GetSpeedMultiplier())
}

type advisoryRecorder struct {
	mu         sync.Mutex
	advisories []da.Advisory
}

func (r *advisoryRecorder) Report(advisory da.Advisory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advisories = append(r.advisories, advisory)
}

func (r *advisoryRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.advisories))
	for i, a := range r.advisories {
		out[i] = a.Message
	}
	return out
}

func (r *advisoryRecorder) Last() da.Advisory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advisories[len(r.advisories)-1]
}

type journalRecorder struct {
	mu      sync.Mutex
	records []da.SessionRecord
}

func (j *journalRecorder) Record(record da.SessionRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, record)
}

func (j *journalRecorder) Records() []da.SessionRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]da.SessionRecord(nil), j.records...)
}
