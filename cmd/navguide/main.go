package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/lintang-b-s/navguide/pkg/config"
	"github.com/lintang-b-s/navguide/pkg/events"
	"github.com/lintang-b-s/navguide/pkg/http"
	"github.com/lintang-b-s/navguide/pkg/http/router/controllers"
	"github.com/lintang-b-s/navguide/pkg/http/usecases"
	"github.com/lintang-b-s/navguide/pkg/logger"
	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/lintang-b-s/navguide/pkg/navigator/local"
	"github.com/lintang-b-s/navguide/pkg/orchestrator"
	"github.com/lintang-b-s/navguide/pkg/permission"
	"github.com/lintang-b-s/navguide/pkg/places"
	"github.com/lintang-b-s/navguide/pkg/routeclient"
	"github.com/lintang-b-s/navguide/pkg/storage"
	"github.com/lintang-b-s/navguide/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	envFile      = flag.String("env", ".env", "dotenv file loaded before the config")
	useRateLimit = flag.Bool("rate_limit", true, "limit incoming API requests")
	osmFile      = flag.String("osm", "", "openstreetmap pbf extract whose named nodes become places")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if util.LoadEnv(*envFile) {
		logger.Info("loaded environment file", zap.String("file", *envFile))
	}
	if err := util.ReadConfig(); err != nil {
		logger.Warn("config file not read, using defaults", zap.Error(err))
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	catalog, err := loadPlaces(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to load places", zap.Error(err))
	}

	var provider local.RouteProvider
	if cfg.Engine.URL != "" {
		provider = routeclient.New(cfg.Engine.URL, cfg.Engine.Timeout, logger,
			routeclient.WithRateLimit(cfg.Engine.RateLimit, cfg.Engine.Burst))
	}

	navOpts := []local.Option{
		local.WithArrivalRadius(cfg.Navigation.ArrivalRadiusKm),
		local.WithTick(cfg.Navigation.TickInterval, cfg.Navigation.TickInterval),
	}
	if cfg.Navigation.DeviceLocation != nil {
		navOpts = append(navOpts, local.WithDeviceLocation(cfg.Navigation.DeviceLocation.Coordinate()))
	}
	nav, err := local.Open(local.Session{
		TermsAccepted: cfg.Navigation.TermsAccepted,
		Permissions:   permission.NewStaticChecker(cfg.Permissions.Granted...),
		PlatformLevel: cfg.Permissions.PlatformLevel,
	}, provider, catalog, logger, navOpts...)
	if err != nil {
		var initErr *navigator.InitError
		if errors.As(err, &initErr) {
			logger.Fatal(navigator.InitErrorMessage(initErr.Code), zap.Error(err))
		}
		logger.Fatal("failed to open navigator", zap.Error(err))
	}
	nav.SetTaskRemovedBehavior(cfg.TaskRemoved())
	if cfg.Navigation.StartLocation != nil {
		nav.Simulator().SetUserLocation(cfg.Navigation.StartLocation.Coordinate())
	}

	hub := controllers.NewHub(nil, logger)
	reporters := []orchestrator.Reporter{orchestrator.NewLogReporter(logger), hub}

	var publisher *events.Publisher
	if cfg.Kafka.Enabled() {
		publisher = events.NewPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), "navguide", logger)
		reporters = append(reporters, publisher)
	}

	orchOpts := []orchestrator.Option{orchestrator.WithSpeedMultiplier(cfg.Navigation.SpeedMultiplier)}
	var journal *storage.Journal
	if cfg.Postgres.DSN != "" {
		pool, err := storage.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := storage.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to migrate journal", zap.Error(err))
		}
		journal = storage.NewJournal(pool, runID(), logger)
		orchOpts = append(orchOpts, orchestrator.WithJournal(journal))
	}

	reporter := orchestrator.MultiReporter(reporters...)
	var sessions atomic.Uint64
	navigationService := usecases.NewNavigationService(logger, nav, func() usecases.Orchestrator {
		opts := append([]orchestrator.Option{orchestrator.WithSessionID(sessions.Add(1))}, orchOpts...)
		return orchestrator.New(nav, reporter, logger, opts...)
	})
	hub.SetStatusProvider(navigationService)

	api := http.NewServer(logger)
	if _, err := api.Use(ctx, logger, *useRateLimit, navigationService, hub); err != nil {
		logger.Fatal("failed to start api", zap.Error(err))
	}
	go func() {
		if err := api.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("api stopped", zap.Error(err))
		}
	}()

	signal := http.GracefulShutdown()

	cleanup()
	if err := navigationService.Close(); err != nil {
		logger.Error("failed to clean up navigation session", zap.Error(err))
	}
	hub.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close kafka writer", zap.Error(err))
		}
	}
	if journal != nil {
		journal.Close()
	}
	logger.Info("navguide server stopped", zap.String("signal", signal.String()))
}

func loadPlaces(ctx context.Context, cfg config.Config, log *zap.Logger) (*places.Catalog, error) {
	catalog := places.NewCatalog(log)
	if _, err := catalog.LoadFromViper(viper.GetViper(), "places"); err != nil {
		return nil, err
	}
	mapFile := *osmFile
	if mapFile == "" {
		mapFile = cfg.OSMFile
	}
	if mapFile != "" {
		if _, err := catalog.LoadOSM(ctx, mapFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", mapFile, err)
		}
	}
	return catalog, nil
}

func runID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "navguide"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
