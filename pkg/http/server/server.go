package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

type Config struct {
	Port          int
	WebsocketPort int
	ProxyPort     int
	Timeout       time.Duration
}

// New builds the http server for handler. The websocket server listens on WebsocketPort and
// has no write timeout: its connections are long lived.
func New(ctx context.Context, handler http.Handler, config Config, websocket bool) *http.Server {
	port := config.Port
	writeTimeout := config.Timeout + 5*time.Second
	if websocket {
		port = config.WebsocketPort
		writeTimeout = 0
	} else if config.Timeout > 0 {
		handler = http.TimeoutHandler(handler, config.Timeout, "request timeout")
	}

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
