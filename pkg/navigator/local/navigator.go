package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/lintang-b-s/navguide/pkg/places"
	"github.com/lintang-b-s/navguide/pkg/routeclient"
	"github.com/lintang-b-s/navguide/pkg/routetoken"
	"github.com/lintang-b-s/navguide/pkg/util"
	"go.uber.org/zap"
)

const (
	defaultTickInterval    = time.Second
	defaultArrivalRadiusKm = 0.03
	defaultComputeTimeout  = 30 * time.Second
)

var (
	ErrUnknownPlace     = errors.New("place id cannot be resolved")
	ErrLocationUnknown  = errors.New("user location is unknown")
	ErrLocationDisabled = errors.New("location provider is disabled")
)

type RouteProvider interface {
	ComputeRoute(ctx context.Context, req routeclient.Request) (*routeclient.Route, error)
}

type PlaceResolver interface {
	Resolve(placeID string) (places.Place, bool)
}

type Option func(*Navigator)

// WithTick sets how often the simulator moves and how much simulated time passes per move.
func WithTick(interval, simulated time.Duration) Option {
	return func(n *Navigator) {
		if interval > 0 {
			n.tickInterval = interval
		}
		if simulated > 0 {
			n.simulatedStep = simulated
		}
	}
}

// WithArrivalRadius sets the distance (km) at which a waypoint counts as reached.
func WithArrivalRadius(km float64) Option {
	return func(n *Navigator) {
		if km > 0 {
			n.arrivalRadius = km
		}
	}
}

// WithDeviceLocation sets the location reported when no simulated location is set.
func WithDeviceLocation(c da.Coordinate) Option {
	return func(n *Navigator) {
		n.deviceLocation = &c
	}
}

func WithComputeTimeout(d time.Duration) Option {
	return func(n *Navigator) {
		if d > 0 {
			n.computeTimeout = d
		}
	}
}

// Navigator computes routes through an external routing engine and replays them with a
// simulated user. Listeners and result callbacks are never invoked with mu held.
type Navigator struct {
	log      *zap.Logger
	provider RouteProvider
	resolver PlaceResolver

	arrivalListeners      *navigator.ListenerRegistry[navigator.ArrivalListener]
	routeChangedListeners *navigator.ListenerRegistry[navigator.RouteChangedListener]

	tickInterval   time.Duration
	simulatedStep  time.Duration
	arrivalRadius  float64
	computeTimeout time.Duration

	mu                sync.Mutex
	deviceLocation    *da.Coordinate
	simulatedLocation *da.Coordinate
	locationEnabled   bool
	generation        uint64
	pending           *navigator.ResultFuture
	route             *activeRoute
	guidanceRunning   bool
	audioGuidance     navigator.AudioGuidance
	taskRemoved       navigator.TaskRemovedBehavior
	stopSimulation    context.CancelFunc
}

var _ navigator.Navigator = (*Navigator)(nil)

// New returns a navigator. resolver may be nil, in which case every place id is unknown.
func New(provider RouteProvider, resolver PlaceResolver, log *zap.Logger, opts ...Option) *Navigator {
	n := &Navigator{
		log:                   log,
		provider:              provider,
		resolver:              resolver,
		arrivalListeners:      navigator.NewListenerRegistry[navigator.ArrivalListener](),
		routeChangedListeners: navigator.NewListenerRegistry[navigator.RouteChangedListener](),
		tickInterval:          defaultTickInterval,
		simulatedStep:         defaultTickInterval,
		arrivalRadius:         defaultArrivalRadiusKm,
		computeTimeout:        defaultComputeTimeout,
		locationEnabled:       true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Navigator) SetDestination(destination da.Waypoint, routingOptions *da.RoutingOptions,
	displayOptions *da.DisplayOptions) navigator.PendingRoute {
	return n.SetDestinations([]da.Waypoint{destination}, routingOptions, displayOptions)
}

func (n *Navigator) SetDestinations(destinations []da.Waypoint, routingOptions *da.RoutingOptions,
	_ *da.DisplayOptions) navigator.PendingRoute {
	destinations = append([]da.Waypoint(nil), destinations...)

	ctx, future, gen, origin, status := n.beginCompute(len(destinations))
	if status != da.OK {
		future.Resolve(status)
		return future
	}

	resolved, err := n.resolveWaypoints(destinations, true)
	if err != nil {
		n.log.Info("cannot resolve destinations", zap.Error(err))
		future.Resolve(da.WAYPOINT_ERROR)
		return future
	}

	go func() {
		legs, err := n.computeLegs(ctx, origin, resolved, routingOptions)
		if err != nil {
			status := routeclient.StatusFromError(err)
			if errors.Is(ctx.Err(), context.Canceled) {
				status = da.ROUTE_CANCELED
			}
			n.log.Info("route computation failed", zap.String("status", status.String()), zap.Error(err))
			future.Resolve(status)
			return
		}
		n.finishCompute(future, gen, resolved, legs, routingOptions.GetTravelMode())
	}()
	return future
}

// SetDestinationsWithToken follows the route carried by the token. A token computed for a
// different waypoint sequence is a WAYPOINT_ERROR. The replay uses the travel mode the token
// was minted with.
func (n *Navigator) SetDestinationsWithToken(destinations []da.Waypoint,
	customRoutesOptions da.CustomRoutesOptions, _ *da.DisplayOptions) navigator.PendingRoute {
	destinations = append([]da.Waypoint(nil), destinations...)

	_, future, gen, _, status := n.beginCompute(len(destinations))
	if status != da.OK {
		future.Resolve(status)
		return future
	}

	payload, err := routetoken.DecodeFor(customRoutesOptions.GetRouteToken(), destinations)
	if err != nil {
		n.log.Info("rejecting route token", zap.Error(err))
		future.Resolve(da.WAYPOINT_ERROR)
		return future
	}

	legs := make([]leg, len(payload.Legs))
	for i, l := range payload.Legs {
		if legs[i], err = legFromToken(l); err != nil {
			n.log.Info("route token leg is invalid", zap.Int("leg", i), zap.Error(err))
			future.Resolve(da.WAYPOINT_ERROR)
			return future
		}
	}

	resolved, _ := n.resolveWaypoints(destinations, false)
	n.finishCompute(future, gen, resolved, legs, payload.TravelMode)
	return future
}

// beginCompute supersedes any earlier computation and checks the user location.
func (n *Navigator) beginCompute(count int) (context.Context, *navigator.ResultFuture, uint64,
	da.Coordinate, da.RouteStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), n.computeTimeout)
	future := navigator.NewResultFuture(cancel).WithRelease(cancel)

	n.mu.Lock()
	previous := n.pending
	n.generation++
	gen := n.generation
	n.pending = future
	n.route = nil
	n.stopSimulationLocked()
	origin, err := n.currentLocationLocked()
	n.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}

	switch {
	case errors.Is(err, ErrLocationDisabled):
		return ctx, future, gen, origin, da.LOCATION_DISABLED
	case err != nil:
		return ctx, future, gen, origin, da.LOCATION_UNKNOWN
	case count == 0:
		return ctx, future, gen, origin, da.WAYPOINT_ERROR
	}
	return ctx, future, gen, origin, da.OK
}

func (n *Navigator) finishCompute(future *navigator.ResultFuture, gen uint64, waypoints []da.Waypoint,
	legs []leg, mode da.TravelMode) {
	route, err := newActiveRoute(waypoints, legs, mode)
	if err != nil {
		future.Resolve(da.NO_ROUTE_FOUND)
		return
	}

	n.mu.Lock()
	if n.generation != gen {
		n.mu.Unlock()
		future.Resolve(da.ROUTE_CANCELED)
		return
	}
	n.route = route
	n.pending = nil
	dist, dur := route.remaining()
	n.mu.Unlock()

	n.log.Info("route computed", zap.Int("waypoints", len(waypoints)),
		zap.Float64("distance_m", dist), zap.Float64("duration_s", dur))
	if future.Resolve(da.OK) {
		n.dispatchRouteChanged(da.NewRouteChangedEvent(dist, dur, len(waypoints)))
	}
}

func (n *Navigator) resolveWaypoints(waypoints []da.Waypoint, strict bool) ([]da.Waypoint, error) {
	out := make([]da.Waypoint, len(waypoints))
	for i, w := range waypoints {
		out[i] = w
		id := w.GetPlaceID()
		if id == "" {
			continue
		}
		var (
			place places.Place
			ok    bool
		)
		if n.resolver != nil {
			place, ok = n.resolver.Resolve(id)
		}
		if !ok {
			if strict {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPlace, id)
			}
			continue
		}
		out[i] = w.WithCoordinate(place.Coordinate)
	}
	return out, nil
}

func (n *Navigator) computeLegs(ctx context.Context, origin da.Coordinate, waypoints []da.Waypoint,
	routingOptions *da.RoutingOptions) ([]leg, error) {
	legs := make([]leg, 0, len(waypoints))
	from := origin
	for _, w := range waypoints {
		to, ok := w.ResolvedCoordinate()
		if !ok {
			return nil, &routeclient.StatusError{Status: da.WAYPOINT_ERROR, Err: ErrUnknownPlace}
		}
		req := routeclient.Request{
			Origin:      from,
			Destination: to,
			Options:     routingOptions,
		}
		if heading, ok := w.GetPreferredHeading(); ok {
			req.Heading = &heading
		}
		r, err := n.provider.ComputeRoute(ctx, req)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg{
			polyline: r.Polyline,
			path:     r.Path,
			distance: r.DistanceMeters,
			duration: r.DurationSeconds,
		})
		from = to
	}
	return legs, nil
}

// MintRouteToken computes a route from the current user location through waypoints and
// packs it into a route token for SetDestinationsWithToken.
func (n *Navigator) MintRouteToken(ctx context.Context, waypoints []da.Waypoint,
	routingOptions *da.RoutingOptions) (string, error) {
	return n.MintRouteTokenFrom(ctx, nil, waypoints, routingOptions)
}

// MintRouteTokenFrom is MintRouteToken starting at from instead of the user location when
// from is set. Neither the user location nor a running simulation is touched.
func (n *Navigator) MintRouteTokenFrom(ctx context.Context, from *da.Coordinate, waypoints []da.Waypoint,
	routingOptions *da.RoutingOptions) (string, error) {
	if len(waypoints) == 0 {
		return "", da.ErrNoDestinations
	}
	var (
		origin da.Coordinate
		err    error
	)
	if from != nil {
		origin = *from
	} else {
		n.mu.Lock()
		origin, err = n.currentLocationLocked()
		n.mu.Unlock()
	}
	if err != nil {
		return "", err
	}

	resolved, err := n.resolveWaypoints(waypoints, true)
	if err != nil {
		return "", err
	}
	legs, err := n.computeLegs(ctx, origin, resolved, routingOptions)
	if err != nil {
		return "", err
	}

	tokenLegs := make([]routetoken.Leg, len(legs))
	for i, l := range legs {
		tokenLegs[i] = l.toToken()
	}
	return routetoken.Encode(routetoken.NewPayload(waypoints, routingOptions.GetTravelMode(), tokenLegs))
}

func (n *Navigator) ClearDestinations() {
	n.mu.Lock()
	previous := n.pending
	n.pending = nil
	n.generation++
	n.route = nil
	n.stopSimulationLocked()
	n.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}
}

func (n *Navigator) ContinueToNextDestination() (da.Waypoint, bool) {
	n.mu.Lock()
	if n.route == nil {
		n.mu.Unlock()
		return da.Waypoint{}, false
	}
	next, ok := n.route.continueToNext()
	dist, dur := n.route.remaining()
	remaining := len(n.route.remainingWaypoints())
	n.mu.Unlock()

	if ok {
		n.dispatchRouteChanged(da.NewRouteChangedEvent(dist, dur, remaining))
	}
	return next, ok
}

// StartGuidance fails when there is no route to follow.
func (n *Navigator) StartGuidance() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.route == nil {
		return false
	}
	n.guidanceRunning = true
	return true
}

func (n *Navigator) StopGuidance() {
	n.mu.Lock()
	n.guidanceRunning = false
	n.mu.Unlock()
}

func (n *Navigator) IsGuidanceRunning() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.guidanceRunning
}

func (n *Navigator) SetAudioGuidance(mode navigator.AudioGuidance) {
	n.mu.Lock()
	n.audioGuidance = mode
	n.mu.Unlock()
}

func (n *Navigator) SetTaskRemovedBehavior(behavior navigator.TaskRemovedBehavior) {
	n.mu.Lock()
	n.taskRemoved = behavior
	n.mu.Unlock()
}

// SetLocationEnabled switches the location provider. While disabled every route request
// fails with LOCATION_DISABLED.
func (n *Navigator) SetLocationEnabled(enabled bool) {
	n.mu.Lock()
	n.locationEnabled = enabled
	n.mu.Unlock()
}

func (n *Navigator) AddArrivalListener(listener navigator.ArrivalListener) navigator.ListenerID {
	return n.arrivalListeners.Add(listener)
}

func (n *Navigator) RemoveArrivalListener(id navigator.ListenerID) bool {
	return n.arrivalListeners.Remove(id)
}

func (n *Navigator) AddRouteChangedListener(listener navigator.RouteChangedListener) navigator.ListenerID {
	return n.routeChangedListeners.Add(listener)
}

func (n *Navigator) RemoveRouteChangedListener(id navigator.ListenerID) bool {
	return n.routeChangedListeners.Remove(id)
}

func (n *Navigator) Simulator() navigator.Simulator {
	return simulator{n: n}
}

func (n *Navigator) currentLocationLocked() (da.Coordinate, error) {
	if !n.locationEnabled {
		return da.Coordinate{}, ErrLocationDisabled
	}
	if n.simulatedLocation != nil {
		return *n.simulatedLocation, nil
	}
	if n.deviceLocation != nil {
		return *n.deviceLocation, nil
	}
	return da.Coordinate{}, ErrLocationUnknown
}

func (n *Navigator) dispatchArrival(event da.ArrivalEvent) {
	for _, l := range n.arrivalListeners.Snapshot() {
		l(event)
	}
}

func (n *Navigator) dispatchRouteChanged(event da.RouteChangedEvent) {
	for _, l := range n.routeChangedListeners.Snapshot() {
		l(event)
	}
}

// State is a point in time view of the navigator.
type State struct {
	Location                 *da.Coordinate `json:"location,omitempty"`
	LocationEnabled          bool           `json:"location_enabled"`
	Simulating               bool           `json:"simulating"`
	GuidanceRunning          bool           `json:"guidance_running"`
	AudioGuidance            string         `json:"audio_guidance"`
	TaskRemovedBehavior      string         `json:"task_removed_behavior"`
	Destinations             []da.Waypoint  `json:"destinations"`
	RemainingDistanceMeters  float64        `json:"remaining_distance_meters"`
	RemainingDurationSeconds float64        `json:"remaining_duration_seconds"`
	Heading                  *float64       `json:"heading,omitempty"`
	DistanceFromRouteMeters  *float64       `json:"distance_from_route_meters,omitempty"`
	TravelMode               string         `json:"travel_mode,omitempty"`
}

func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	st := State{
		LocationEnabled:     n.locationEnabled,
		Simulating:          n.stopSimulation != nil,
		GuidanceRunning:     n.guidanceRunning,
		AudioGuidance:       n.audioGuidance.String(),
		TaskRemovedBehavior: n.taskRemoved.String(),
		Destinations:        []da.Waypoint{},
	}
	if loc, err := n.currentLocationLocked(); err == nil {
		st.Location = &loc
	}
	if n.route != nil {
		st.Destinations = n.route.remainingWaypoints()
		st.RemainingDistanceMeters, st.RemainingDurationSeconds = n.route.remaining()
		st.TravelMode = n.route.travelMode.String()
		if !n.route.finished {
			heading := util.RoundFloat(n.route.heading(), 1)
			st.Heading = &heading
			if st.Location != nil {
				off := util.RoundFloat(n.route.distanceFromPath(*st.Location), 1)
				st.DistanceFromRouteMeters = &off
			}
		}
	}
	return st
}
