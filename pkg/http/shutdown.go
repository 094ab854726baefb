package http

import (
	"os"
	"os/signal"
	"syscall"
)

// GracefulShutdown blocks until SIGINT or SIGTERM arrives and returns it.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return <-quit
}
