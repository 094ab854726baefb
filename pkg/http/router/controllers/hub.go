package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/navguide/pkg/concurrent"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/http/usecases"
	"go.uber.org/zap"
)

const statusRequestTimeout = 5 * time.Second

type StatusProvider interface {
	Status(ctx context.Context) (usecases.NavigationStatus, error)
}

// streamRequest is a message sent by a websocket client.
type streamRequest struct {
	Action string `json:"action" validate:"required,oneof=status ping"`
}

type streamEvent struct {
	Type     string                     `json:"type"`
	Advisory *da.Advisory               `json:"advisory,omitempty"`
	Status   *usecases.NavigationStatus `json:"status,omitempty"`
}

type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) readRequest() (*streamRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &streamRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// HandleRequest answers one client message.
func (u *User) HandleRequest() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	if err := validate(req); err != nil {
		var resp errorResponse
		resp.Error.Code = http.StatusText(http.StatusBadRequest)
		resp.Error.Message = err.Error()
		return u.write(envelope{"error": resp.Error})
	}

	switch req.Action {
	case "ping":
		return u.write(envelope{"data": streamEvent{Type: "pong"}})
	default:
		ctx, cancel := context.WithTimeout(context.Background(), statusRequestTimeout)
		defer cancel()
		status := u.hub.statusProvider()
		if status == nil {
			return u.write(envelope{"data": streamEvent{Type: "status"}})
		}
		st, err := status.Status(ctx)
		if err != nil {
			return err
		}
		return u.write(envelope{"data": streamEvent{Type: "status", Status: &st}})
	}
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

// Hub keeps the connected websocket clients and broadcasts advisories to them. It is an
// advisory reporter; broadcasts run on the hub's own loop.
type Hub struct {
	mu     sync.RWMutex
	seq    uint
	us     []*User
	ns     map[uint]*User
	status StatusProvider
	loop   *concurrent.Looper
	log    *zap.Logger
}

func NewHub(status StatusProvider, log *zap.Logger) *Hub {
	hub := &Hub{
		ns:     make(map[uint]*User),
		us:     make([]*User, 0),
		status: status,
		loop:   concurrent.NewLooper("websocket-hub", log),
		log:    log,
	}
	hub.loop.Start()
	return hub
}

// SetStatusProvider replaces the status source used for client status requests.
func (h *Hub) SetStatusProvider(status StatusProvider) {
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}

func (h *Hub) statusProvider() StatusProvider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.ns[user.id]; !ok {
		return
	}
	delete(h.ns, user.id)

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
}

func (h *Hub) RemoveAllUser() {
	for _, user := range h.users() {
		h.Remove(user)
		user.conn.Close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}

func (h *Hub) users() []*User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*User(nil), h.us...)
}

// Report broadcasts advisory to every connected client. Clients that cannot be written to
// are dropped.
func (h *Hub) Report(advisory da.Advisory) {
	h.loop.Post(func() {
		msg := envelope{"data": streamEvent{Type: "advisory", Advisory: &advisory}}
		for _, user := range h.users() {
			if err := user.write(msg); err != nil {
				h.log.Info("dropping websocket client", zap.Uint("user", user.id), zap.Error(err))
				h.Remove(user)
				user.conn.Close()
			}
		}
	})
}

// Close stops broadcasting and disconnects every client.
func (h *Hub) Close() {
	h.loop.Close()
	h.RemoveAllUser()
}
