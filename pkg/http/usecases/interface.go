package usecases

import (
	"context"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/navigator/local"
	"github.com/lintang-b-s/navguide/pkg/orchestrator"
)

type Orchestrator interface {
	SubmitSingleDestination(ctx context.Context, destination da.Waypoint,
		routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, opts ...orchestrator.SubmitOption) error
	SubmitMultiWaypoint(ctx context.Context, destinations []da.Waypoint,
		routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, opts ...orchestrator.SubmitOption) error
	SubmitWithRouteToken(ctx context.Context, destinations []da.Waypoint,
		customRoutesOptions da.CustomRoutesOptions, displayOptions *da.DisplayOptions,
		opts ...orchestrator.SubmitOption) error
	CreateWaypoint(placeID, title string) (da.Waypoint, error)
	Status(ctx context.Context) (orchestrator.Status, error)
	Cleanup() error
}

// OrchestratorFactory builds a fresh orchestrator attached to the shared navigator.
type OrchestratorFactory func() Orchestrator

type Navigator interface {
	State() local.State
	MintRouteTokenFrom(ctx context.Context, origin *da.Coordinate, waypoints []da.Waypoint,
		routingOptions *da.RoutingOptions) (string, error)
}
