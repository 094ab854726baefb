package orchestrator

import (
	"fmt"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
)

// StatusToDiagnostic maps a route status to the advisory text shown to the user.
func StatusToDiagnostic(status da.RouteStatus) string {
	switch status {
	case da.OK:
		return "OK"
	case da.ROUTE_CANCELED:
		return "Route Canceled"
	case da.NO_ROUTE_FOUND:
		return "No Route Found"
	case da.NETWORK_ERROR:
		return "Network Error"
	case da.QUOTA_CHECK_FAILED:
		return "Quota Exceeded"
	case da.LOCATION_DISABLED:
		return "Location Disabled"
	case da.LOCATION_UNKNOWN:
		return "Location Unknown"
	case da.WAYPOINT_ERROR:
		return "Waypoint Error"
	}
	return fmt.Sprintf("Unknown Error (%d)", int(status))
}
