package router

import (
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"
)

// upstream hands the hijacked client connection to the websocket server at addr and pipes
// bytes both ways until either side closes.
func (api *API) upstream(name, network, addr string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		peer, err := net.Dial(network, addr)
		if err != nil {
			api.log.Error("dial upstream", zap.String("upstream", name), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if err := r.Write(peer); err != nil {
			api.log.Error("write request to upstream", zap.String("upstream", name), zap.Error(err))
			peer.Close()
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		hj, ok := w.(http.Hijacker)
		if !ok {
			peer.Close()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			peer.Close()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		go func() {
			defer peer.Close()
			defer conn.Close()
			_, _ = io.Copy(peer, conn)
		}()
		go func() {
			defer peer.Close()
			defer conn.Close()
			_, _ = io.Copy(conn, peer)
		}()
	}
}
