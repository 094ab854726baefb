package navigator

import (
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
)

type ListenerID uint64

type ArrivalListener func(event da.ArrivalEvent)

type RouteChangedListener func(event da.RouteChangedEvent)

// PendingRoute is the single asynchronous result of a destination submission.
type PendingRoute interface {
	// SetOnResultListener registers the callback invoked exactly once with the route status.
	// If the result is already known the callback fires immediately.
	SetOnResultListener(listener func(status da.RouteStatus))
	// Cancel abandons the computation; a not yet delivered result becomes ROUTE_CANCELED.
	Cancel()
}

// Navigator is the routing and guidance capability consumed by the orchestrator.
type Navigator interface {
	SetDestination(destination da.Waypoint, routingOptions *da.RoutingOptions,
		displayOptions *da.DisplayOptions) PendingRoute
	SetDestinations(destinations []da.Waypoint, routingOptions *da.RoutingOptions,
		displayOptions *da.DisplayOptions) PendingRoute
	SetDestinationsWithToken(destinations []da.Waypoint, customRoutesOptions da.CustomRoutesOptions,
		displayOptions *da.DisplayOptions) PendingRoute
	ClearDestinations()
	// ContinueToNextDestination drops the reached destination and returns the next one.
	ContinueToNextDestination() (da.Waypoint, bool)

	StartGuidance() bool
	StopGuidance()
	IsGuidanceRunning() bool
	SetAudioGuidance(mode AudioGuidance)
	SetTaskRemovedBehavior(behavior TaskRemovedBehavior)

	AddArrivalListener(listener ArrivalListener) ListenerID
	RemoveArrivalListener(id ListenerID) bool
	AddRouteChangedListener(listener RouteChangedListener) ListenerID
	RemoveRouteChangedListener(id ListenerID) bool

	Simulator() Simulator
}

type Simulator interface {
	SetUserLocation(location da.Coordinate)
	UnsetUserLocation()
	SimulateLocationsAlongExistingRoute(options da.SimulationOptions)
}
