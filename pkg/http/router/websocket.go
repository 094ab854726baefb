package router

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	http_server "github.com/lintang-b-s/navguide/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	websocketPoolSize = 64
	acceptCooldown    = 5 * time.Millisecond
)

// handleWebsocket serves the navigation event stream until ctx is done. Connections are
// watched with epoll through netpoll, so an idle client holds no goroutine.
func (api *API) handleWebsocket(ctx context.Context, config http_server.Config, errChan chan error) {
	var err error

	srv := http_server.New(ctx, nil, config, true)
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		errChan <- err
		return
	}
	api.log.Info(fmt.Sprintf("navigation event websocket run on port %d", config.WebsocketPort))

	acceptDesc, err := netpoll.HandleListener(ln, netpoll.EventRead|netpoll.EventOneShot)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	api.poller, err = netpoll.New(nil)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	api.pool = &errgroup.Group{}
	api.pool.SetLimit(websocketPoolSize)

	err = api.poller.Start(acceptDesc, func(netpoll.Event) {
		defer api.poller.Resume(acceptDesc)

		accept := make(chan error, 1)
		scheduled := api.pool.TryGo(func() error {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return nil
			}

			accept <- nil
			api.handle(conn)
			return nil
		})
		if !scheduled {
			// pool is full: let running handlers drain before accepting more
			time.Sleep(acceptCooldown)
			return
		}

		if err := <-accept; err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				api.log.Sugar().Infof("accept error: %v; retrying in %s", err, acceptCooldown)
				time.Sleep(acceptCooldown)
				return
			}
			api.log.Warn("accept error", zap.Error(err))
		}
	})
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	<-ctx.Done()

	ln.Close()
	_ = api.poller.Stop(acceptDesc)
	api.hub.RemoveAllUser()
	_ = api.pool.Wait()

	api.log.Info("websocket server stopped")
}

// handle upgrades conn and registers it in the hub. Client messages are read only when
// netpoll reports the connection readable.
func (api *API) handle(conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}

	api.log.Info("established websocket connection", zap.String("connection", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	user := api.hub.Register(conn)

	desc, err := netpoll.HandleRead(conn)
	if err != nil {
		api.log.Warn("cannot watch websocket connection", zap.Error(err))
		api.hub.Remove(user)
		conn.Close()
		return
	}

	err = api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			// the peer closed its end
			api.log.Info("user disconnected from websocket server", zap.String("connection", nameConn(conn)))
			_ = api.poller.Stop(desc)
			api.hub.Remove(user)
			conn.Close()
			return
		}

		api.pool.Go(func() error {
			if err := user.HandleRequest(); err != nil {
				api.log.Info("closing websocket connection", zap.Error(err))
				_ = api.poller.Stop(desc)
				api.hub.Remove(user)
			}
			return nil
		})
	})
	if err != nil {
		api.hub.Remove(user)
		conn.Close()
	}
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
