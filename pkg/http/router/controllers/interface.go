package controllers

import (
	"context"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/http/usecases"
)

type NavigationService interface {
	NavigateToDestination(ctx context.Context, input usecases.WaypointInput,
		routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, origin *da.Coordinate) error
	NavigateThroughWaypoints(ctx context.Context, inputs []usecases.WaypointInput,
		routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, origin *da.Coordinate) error
	NavigateWithRouteToken(ctx context.Context, inputs []usecases.WaypointInput, routeToken string,
		travelMode da.TravelMode, displayOptions *da.DisplayOptions, origin *da.Coordinate) error
	MintRouteToken(ctx context.Context, inputs []usecases.WaypointInput,
		routingOptions *da.RoutingOptions, origin *da.Coordinate) (string, error)
	Status(ctx context.Context) (usecases.NavigationStatus, error)
	Reset() error
}
