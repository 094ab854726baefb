package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/lintang-b-s/navguide/pkg/config"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/logger"
	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/lintang-b-s/navguide/pkg/navigator/local"
	"github.com/lintang-b-s/navguide/pkg/orchestrator"
	"github.com/lintang-b-s/navguide/pkg/permission"
	"github.com/lintang-b-s/navguide/pkg/places"
	"github.com/lintang-b-s/navguide/pkg/routeclient"
	"github.com/lintang-b-s/navguide/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	scenario = flag.String("scenario", "multi", "demo to run: single, multi or token")
	timeout  = flag.Duration("timeout", 10*time.Minute, "give up when the route is not finished by then")
)

var demoPlaces = []orchestrator.PlaceRef{
	{PlaceID: "ChIJw2Q7CVSvEmsR3sf73C6Qtw0", Title: "Sydney Star"},
	{PlaceID: "ChIJ3S-JXmauEmsRUcIaWtf4MzE", Title: "Sydney Opera House"},
	{PlaceID: "ChIJ_Zm6E2muEmsRHnEV3HnFoy8", Title: "Sydney Conservatorium of Music"},
}

var startLocation = da.NewCoordinate(-33.912182, 151.259678)

func main() {
	flag.Parse()
	logger, err := logger.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	util.LoadEnv()
	if err := util.ReadConfig(); err != nil {
		logger.Warn("config file not read, using defaults", zap.Error(err))
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	catalog := places.NewCatalog(logger)
	if _, err := catalog.LoadFromViper(viper.GetViper(), "places"); err != nil {
		logger.Fatal("failed to load places", zap.Error(err))
	}

	var provider local.RouteProvider
	if cfg.Engine.URL != "" {
		provider = routeclient.New(cfg.Engine.URL, cfg.Engine.Timeout, logger)
	}
	nav, err := local.Open(local.Session{
		TermsAccepted: cfg.Navigation.TermsAccepted,
		Permissions:   permission.NewStaticChecker(cfg.Permissions.Granted...),
		PlatformLevel: cfg.Permissions.PlatformLevel,
	}, provider, catalog, logger,
		local.WithArrivalRadius(cfg.Navigation.ArrivalRadiusKm),
		local.WithTick(cfg.Navigation.TickInterval, cfg.Navigation.TickInterval))
	if err != nil {
		var initErr *navigator.InitError
		if errors.As(err, &initErr) {
			logger.Fatal(navigator.InitErrorMessage(initErr.Code), zap.Error(err))
		}
		logger.Fatal("failed to open navigator", zap.Error(err))
	}
	nav.SetTaskRemovedBehavior(cfg.TaskRemoved())

	start := startLocation
	if cfg.Navigation.StartLocation != nil {
		start = cfg.Navigation.StartLocation.Coordinate()
	}
	nav.Simulator().SetUserLocation(start)

	done := make(chan da.Advisory, 1)
	reporter := orchestrator.MultiReporter(
		orchestrator.NewLogReporter(logger),
		orchestrator.ReporterFunc(func(advisory da.Advisory) {
			if advisory.Kind == da.ADVISORY_ERROR {
				select {
				case done <- advisory:
				default:
				}
			}
		}),
	)
	orch := orchestrator.New(nav, reporter, logger,
		orchestrator.WithSpeedMultiplier(cfg.Navigation.SpeedMultiplier))
	defer orch.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	routingOptions := da.NewRoutingOptions().
		TravelMode(da.DRIVING).
		RoutingStrategy(da.DEFAULT_BEST).
		AvoidFerries(true)

	if err := run(ctx, *scenario, orch, nav, routingOptions); err != nil {
		logger.Error("demo aborted", zap.String("scenario", *scenario), zap.Error(err))
		return
	}

	if err := waitForArrival(ctx, orch, done); err != nil {
		logger.Error("demo did not finish", zap.String("scenario", *scenario), zap.Error(err))
		return
	}
	logger.Info("demo finished", zap.String("scenario", *scenario))
}

func run(ctx context.Context, scenario string, orch *orchestrator.Orchestrator, nav *local.Navigator,
	routingOptions *da.RoutingOptions) error {
	switch scenario {
	case "single":
		destination, err := orch.CreateWaypoint(demoPlaces[1].PlaceID, demoPlaces[1].Title)
		if err != nil {
			return err
		}
		return orch.SubmitSingleDestination(ctx, destination, routingOptions, nil)
	case "multi":
		return orch.SubmitPlaces(ctx, demoPlaces, routingOptions, nil)
	case "token":
		waypoints := make([]da.Waypoint, 0, len(demoPlaces))
		for _, p := range demoPlaces {
			w, err := orch.CreateWaypoint(p.PlaceID, p.Title)
			if err != nil {
				return err
			}
			waypoints = append(waypoints, w)
		}
		token, err := nav.MintRouteToken(ctx, waypoints, routingOptions)
		if err != nil {
			return fmt.Errorf("mint route token: %w", err)
		}
		return orch.SubmitWithRouteToken(ctx, waypoints,
			da.NewCustomRoutesOptions(token, routingOptions.GetTravelMode()), nil)
	}
	return fmt.Errorf("unknown scenario %q", scenario)
}

// waitForArrival polls the orchestrator until guidance ended at the final destination.
func waitForArrival(ctx context.Context, orch *orchestrator.Orchestrator, failed <-chan da.Advisory) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case advisory := <-failed:
			return errors.New(advisory.Message)
		case <-ticker.C:
			st, err := orch.Status(ctx)
			if err != nil {
				return err
			}
			if !st.Pending && !st.GuidanceActive && st.Arrivals > 0 {
				return nil
			}
		}
	}
}
