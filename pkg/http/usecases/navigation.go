package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/navigator/local"
	"github.com/lintang-b-s/navguide/pkg/orchestrator"
	"github.com/lintang-b-s/navguide/pkg/routeclient"
	"github.com/lintang-b-s/navguide/pkg/util"
	"go.uber.org/zap"
)

// WaypointInput is a destination as received from a client: a place id or a coordinate.
type WaypointInput struct {
	PlaceID              string
	Lat, Lon             *float64
	Title                string
	PreferSameSideOfRoad bool
	PreferredHeading     *int
}

type NavigationStatus struct {
	Orchestrator orchestrator.Status `json:"orchestrator"`
	Navigator    local.State         `json:"navigator"`
}

// NavigationService serves navigation requests through the current orchestrator. Reset
// cleans the orchestrator up and replaces it, so a client can start over.
type NavigationService struct {
	log             *zap.Logger
	nav             Navigator
	newOrchestrator OrchestratorFactory

	mu      sync.Mutex
	current Orchestrator
}

func NewNavigationService(log *zap.Logger, nav Navigator, factory OrchestratorFactory) *NavigationService {
	return &NavigationService{
		log:             log,
		nav:             nav,
		newOrchestrator: factory,
		current:         factory(),
	}
}

func (ns *NavigationService) session() Orchestrator {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.current
}

// BuildWaypoints converts client input into waypoints. Unsupported place ids are reported
// through the orchestrator and abort the whole list.
func (ns *NavigationService) BuildWaypoints(inputs []WaypointInput) ([]da.Waypoint, error) {
	orch := ns.session()
	waypoints := make([]da.Waypoint, 0, len(inputs))
	for i, in := range inputs {
		b := da.NewWaypointBuilder().SetTitle(in.Title).SetPreferSameSideOfRoad(in.PreferSameSideOfRoad)
		switch {
		case in.PlaceID != "":
			b.SetPlaceID(in.PlaceID)
		case in.Lat != nil && in.Lon != nil:
			b.SetLatLng(*in.Lat, *in.Lon)
		default:
			return nil, util.WrapErrorf(da.ErrMissingLocation, util.ErrBadParamInput, "waypoint %d", i)
		}
		if in.PreferredHeading != nil {
			b.SetPreferredHeading(*in.PreferredHeading)
		}

		w, err := b.Build()
		if errors.Is(err, da.ErrUnsupportedPlaceID) {
			_, err = orch.CreateWaypoint(in.PlaceID, in.Title)
			return nil, err
		}
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "waypoint %d", i)
		}
		waypoints = append(waypoints, w)
	}
	return waypoints, nil
}

func checkOrigin(origin *da.Coordinate) ([]orchestrator.SubmitOption, error) {
	if origin == nil {
		return nil, nil
	}
	if !origin.IsValid() {
		return nil, util.WrapErrorf(da.ErrInvalidCoordinate, util.ErrBadParamInput, "origin %s", origin)
	}
	return []orchestrator.SubmitOption{orchestrator.FromOrigin(*origin)}, nil
}

// NavigateToDestination submits a single destination. origin, when set, becomes the
// simulated user location once the orchestrator accepts the submission.
func (ns *NavigationService) NavigateToDestination(ctx context.Context, input WaypointInput,
	routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, origin *da.Coordinate) error {
	opts, err := checkOrigin(origin)
	if err != nil {
		return err
	}
	waypoints, err := ns.BuildWaypoints([]WaypointInput{input})
	if err != nil {
		return err
	}
	return ns.session().SubmitSingleDestination(ctx, waypoints[0], routingOptions, displayOptions, opts...)
}

func (ns *NavigationService) NavigateThroughWaypoints(ctx context.Context, inputs []WaypointInput,
	routingOptions *da.RoutingOptions, displayOptions *da.DisplayOptions, origin *da.Coordinate) error {
	opts, err := checkOrigin(origin)
	if err != nil {
		return err
	}
	waypoints, err := ns.BuildWaypoints(inputs)
	if err != nil {
		return err
	}
	return ns.session().SubmitMultiWaypoint(ctx, waypoints, routingOptions, displayOptions, opts...)
}

func (ns *NavigationService) NavigateWithRouteToken(ctx context.Context, inputs []WaypointInput,
	routeToken string, travelMode da.TravelMode, displayOptions *da.DisplayOptions, origin *da.Coordinate) error {
	opts, err := checkOrigin(origin)
	if err != nil {
		return err
	}
	waypoints, err := ns.BuildWaypoints(inputs)
	if err != nil {
		return err
	}
	return ns.session().SubmitWithRouteToken(ctx, waypoints,
		da.NewCustomRoutesOptions(routeToken, travelMode), displayOptions, opts...)
}

// MintRouteToken computes a route through inputs and returns it as a route token. origin
// only seeds the computation; the simulated user location is not changed.
func (ns *NavigationService) MintRouteToken(ctx context.Context, inputs []WaypointInput,
	routingOptions *da.RoutingOptions, origin *da.Coordinate) (string, error) {
	waypoints, err := ns.BuildWaypoints(inputs)
	if err != nil {
		return "", err
	}
	if len(waypoints) == 0 {
		return "", util.WrapErrorf(da.ErrNoDestinations, util.ErrBadParamInput, "mint route token")
	}
	if _, err := checkOrigin(origin); err != nil {
		return "", err
	}

	token, err := ns.nav.MintRouteTokenFrom(ctx, origin, waypoints, routingOptions)
	if err != nil {
		return "", wrapMintError(err)
	}
	return token, nil
}

func wrapMintError(err error) error {
	switch {
	case errors.Is(err, local.ErrLocationUnknown), errors.Is(err, local.ErrLocationDisabled):
		return util.WrapErrorf(err, util.ErrConflict, "mint route token")
	case errors.Is(err, local.ErrUnknownPlace):
		return util.WrapErrorf(err, util.ErrNotFound, "mint route token")
	}

	status := routeclient.StatusFromError(err)
	code := util.ErrInternalServerError
	switch status {
	case da.NO_ROUTE_FOUND:
		code = util.ErrNotFound
	case da.WAYPOINT_ERROR:
		code = util.ErrBadParamInput
	case da.QUOTA_CHECK_FAILED:
		code = util.ErrTooManyRequests
	}
	return util.WrapErrorf(err, code, "mint route token: %s", orchestrator.StatusToDiagnostic(status))
}

func (ns *NavigationService) Status(ctx context.Context) (NavigationStatus, error) {
	st, err := ns.session().Status(ctx)
	if err != nil {
		return NavigationStatus{}, util.WrapErrorf(err, util.ErrInternalServerError, "navigation status")
	}
	return NavigationStatus{Orchestrator: st, Navigator: ns.nav.State()}, nil
}

// Reset cleans up the current orchestrator, which stops guidance and clears destinations,
// and starts a new one.
func (ns *NavigationService) Reset() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if err := ns.current.Cleanup(); err != nil {
		return fmt.Errorf("cleanup orchestrator: %w", err)
	}
	ns.current = ns.newOrchestrator()
	ns.log.Info("navigation session reset")
	return nil
}

// Close cleans up the current orchestrator.
func (ns *NavigationService) Close() error {
	return ns.session().Cleanup()
}
