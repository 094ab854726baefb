package http

import (
	"context"

	http_router "github.com/lintang-b-s/navguide/pkg/http/router"
	"github.com/lintang-b-s/navguide/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/navguide/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log, g: &errgroup.Group{}}
}

// Use starts the REST API, the websocket event stream and its proxy. The servers stop when
// ctx is done; Wait returns the first error any of them produced.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	useRateLimit bool,
	navigationService controllers.NavigationService,
	hub *controllers.Hub,
) (*Server, error) {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)
	viper.SetDefault("PROXY_PORT", 6767)

	viper.SetDefault("API_TIMEOUT", "60s")

	config := http_server.Config{
		Port:          viper.GetInt("API_PORT"),
		WebsocketPort: viper.GetInt("WEBSOCKET_PORT"),
		ProxyPort:     viper.GetInt("PROXY_PORT"),
		Timeout:       viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log, hub)

	s.g.Go(func() error {
		return server.Run(
			ctx, config, log,
			useRateLimit, navigationService,
		)
	})

	return s, nil
}

func (s *Server) Wait() error {
	return s.g.Wait()
}
