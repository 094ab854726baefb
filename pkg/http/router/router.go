package router

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/lintang-b-s/navguide/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/navguide/pkg/http/router/routerhelper"
	http_server "github.com/lintang-b-s/navguide/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "net/http/pprof"
)

type API struct {
	log    *zap.Logger
	hub    *controllers.Hub
	poller netpoll.Poller
	pool   *errgroup.Group
}

func NewAPI(log *zap.Logger, hub *controllers.Hub) *API {
	return &API{log: log, hub: hub}
}

//	@title			navguide API
//	@version		1.0
//	@description	Route acquisition and simulated guidance on top of a Navigatorx routing engine.

//	@license.name	BSD License
//	@license.url	https://opensource.org/license/bsd-2-clause

// @host		localhost
// @BasePath	/api
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	log *zap.Logger,

	useRateLimit bool,
	navigationService controllers.NavigationService,
) error {
	log.Info("Run httprouter API")

	handler := api.Handler(useRateLimit, navigationService)

	var (
		errChan      chan error = make(chan error, 1)
		errProxyChan chan error = make(chan error, 1)
		proxyServer  *http.Server
	)

	go func() {
		api.handleWebsocket(ctx, config, errChan)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", api.upstream("navigation events", "tcp", "localhost:"+strconv.Itoa(config.WebsocketPort)))
	proxyServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", config.ProxyPort),
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: viper.GetDuration("HTTP_SERVER_READ_HEADER_TIMEOUT"),
	}
	go func() {
		api.log.Info(fmt.Sprintf("WebSocket proxy running on port %d", config.ProxyPort))
		if err := proxyServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errProxyChan <- err
		}
	}()

	srv := http_server.New(ctx, handler, config, false)
	log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		log.Error("Websocket error, shutting down server", zap.Error(err))
		_ = srv.Shutdown(context.Background())
		_ = proxyServer.Shutdown(context.Background())
		return err
	case err := <-errProxyChan:
		log.Error("Websocket proxy error, shutting down server", zap.Error(err))
		_ = srv.Shutdown(context.Background())
		return err
	case err := <-serverErr:
		log.Info("HTTP server stopped", zap.Error(err))
		_ = proxyServer.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		log.Info("Context canceled, shutting down server")
		_ = srv.Shutdown(context.Background())
		_ = proxyServer.Shutdown(context.Background())
		return ctx.Err()
	}
}

// Handler builds the REST handler with its middleware chain.
func (api *API) Handler(useRateLimit bool, navigationService controllers.NavigationService) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	router.GET("/doc/*any", swaggerHandler)

	router.Handler(http.MethodGet, "/debug/pprof/*item", http.DefaultServeMux)

	group := router_helper.NewRouteGroup(router, "/api")

	navigationRoutes := controllers.New(navigationService, api.log)

	navigationRoutes.Routes(group)

	var mwChain []alice.Constructor
	mwChain = append(mwChain, corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log), Labels)
	if useRateLimit {
		viper.SetDefault("RATE_LIMIT_RPS", 20)
		viper.SetDefault("RATE_LIMIT_BURST", 40)
		limiter := rate.NewLimiter(rate.Limit(viper.GetFloat64("RATE_LIMIT_RPS")), viper.GetInt("RATE_LIMIT_BURST"))
		mwChain = append(mwChain, Limit(limiter))
	}
	return alice.New(mwChain...).Then(router)
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, p httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
