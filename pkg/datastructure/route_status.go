package datastructure

import "fmt"

// RouteStatus is the outcome of a route submission.
type RouteStatus int

const (
	OK RouteStatus = iota
	NO_ROUTE_FOUND
	NETWORK_ERROR
	QUOTA_CHECK_FAILED
	ROUTE_CANCELED
	LOCATION_DISABLED
	LOCATION_UNKNOWN
	WAYPOINT_ERROR
)

var routeStatusNames = [...]string{
	OK:                 "OK",
	NO_ROUTE_FOUND:     "NO_ROUTE_FOUND",
	NETWORK_ERROR:      "NETWORK_ERROR",
	QUOTA_CHECK_FAILED: "QUOTA_CHECK_FAILED",
	ROUTE_CANCELED:     "ROUTE_CANCELED",
	LOCATION_DISABLED:  "LOCATION_DISABLED",
	LOCATION_UNKNOWN:   "LOCATION_UNKNOWN",
	WAYPOINT_ERROR:     "WAYPOINT_ERROR",
}

func (s RouteStatus) IsKnown() bool {
	return s >= OK && int(s) < len(routeStatusNames)
}

func (s RouteStatus) String() string {
	if s.IsKnown() {
		return routeStatusNames[s]
	}
	return fmt.Sprintf("%d", int(s))
}
