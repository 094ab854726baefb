package orchestrator

import (
	"errors"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
)

var (
	ErrNoDestinations     = da.ErrNoDestinations
	ErrUnsupportedPlaceID = da.ErrUnsupportedPlaceID
	ErrInvalidWaypoint    = da.ErrInvalidWaypoint
	ErrMissingRouteToken  = da.ErrMissingRouteToken
	ErrSubmissionPending  = errors.New("a route submission is already pending")
	ErrClosed             = errors.New("orchestrator has been cleaned up")
)

const (
	msgNoDestinations    = "No destinations provided"
	msgSubmissionPending = "A route request is already pending"
	msgInvalidWaypoint   = "Invalid destination waypoint"
	msgMissingRouteToken = "No route token provided"
	msgGuidanceStarted   = "Guidance started"
	msgArrived           = "onArrival: User has arrived"
	msgRouteChanged      = "onRouteChanged: The driver's route changed"
	msgErrorPrefix       = "Error starting guidance: "
	msgUnsupportedPlace  = "Unsupported PlaceID: "
)
