package datastructure

import "errors"

var (
	ErrNoDestinations    = errors.New("no destinations provided")
	ErrInvalidWaypoint   = errors.New("waypoint was not built by WaypointBuilder")
	ErrMissingRouteToken = errors.New("route token is required")
)

type SubmissionKind string

const (
	SUBMIT_SINGLE_DESTINATION SubmissionKind = "single_destination"
	SUBMIT_MULTI_WAYPOINT     SubmissionKind = "multi_waypoint"
	SUBMIT_ROUTE_TOKEN        SubmissionKind = "route_token"
)

// RouteRequest is one navigation attempt: submitted once, discarded after its result.
type RouteRequest struct {
	kind           SubmissionKind
	waypoints      []Waypoint
	routingOptions *RoutingOptions
	displayOptions *DisplayOptions
	customRoutes   *CustomRoutesOptions
}

func NewRouteRequest(kind SubmissionKind, waypoints []Waypoint, routingOptions *RoutingOptions,
	displayOptions *DisplayOptions) (*RouteRequest, error) {
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}
	return &RouteRequest{
		kind:           kind,
		waypoints:      append([]Waypoint(nil), waypoints...),
		routingOptions: routingOptions,
		displayOptions: displayOptions,
	}, nil
}

// NewTokenRouteRequest builds a request carrying a route token. The waypoints must be the
// sequence the token was computed for; that cannot be checked here.
func NewTokenRouteRequest(waypoints []Waypoint, customRoutes CustomRoutesOptions,
	displayOptions *DisplayOptions) (*RouteRequest, error) {
	if err := validateWaypoints(waypoints); err != nil {
		return nil, err
	}
	if customRoutes.GetRouteToken() == "" {
		return nil, ErrMissingRouteToken
	}
	return &RouteRequest{
		kind:           SUBMIT_ROUTE_TOKEN,
		waypoints:      append([]Waypoint(nil), waypoints...),
		displayOptions: displayOptions,
		customRoutes:   &customRoutes,
	}, nil
}

func validateWaypoints(waypoints []Waypoint) error {
	if len(waypoints) == 0 {
		return ErrNoDestinations
	}
	for _, w := range waypoints {
		if !w.IsValid() {
			return ErrInvalidWaypoint
		}
	}
	return nil
}

func (r *RouteRequest) GetKind() SubmissionKind {
	return r.kind
}

func (r *RouteRequest) GetWaypoints() []Waypoint {
	return append([]Waypoint(nil), r.waypoints...)
}

func (r *RouteRequest) GetRoutingOptions() *RoutingOptions {
	return r.routingOptions
}

func (r *RouteRequest) GetDisplayOptions() *DisplayOptions {
	return r.displayOptions
}

func (r *RouteRequest) GetCustomRoutesOptions() (CustomRoutesOptions, bool) {
	if r.customRoutes == nil {
		return CustomRoutesOptions{}, false
	}
	return *r.customRoutes, true
}

func (r *RouteRequest) WaypointKeys() []string {
	keys := make([]string, len(r.waypoints))
	for i, w := range r.waypoints {
		keys[i] = w.Key()
	}
	return keys
}
