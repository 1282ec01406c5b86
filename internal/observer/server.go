// Package observer serves the render payload to local tools over HTTP and
// a websocket stream.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"surveyor/internal/api"
	"surveyor/internal/events"
	"surveyor/internal/log"
)

// Source supplies the current payload for new clients and GET /state.
type Source interface {
	GetRenderState() api.RenderPayload
}

// Message is one frame on the websocket stream.
type Message struct {
	Type    string             `json:"type"`
	Payload *api.RenderPayload `json:"payload,omitempty"`
}

const clientBuffer = 16

type Server struct {
	src Source
	bus *events.Bus

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uint64]chan []byte
	nextID  uint64
	lastSeq uint64

	stateSub string
	zoneSub  string
}

// NewServer starts relaying bus notifications to websocket clients.
func NewServer(src Source, bus *events.Bus) *Server {
	s := &Server{
		src:     src,
		bus:     bus,
		clients: make(map[uint64]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	s.stateSub = bus.Subscribe(events.StateUpdated, func(ev events.Event) {
		if u, ok := ev.Data.(events.StateUpdate); ok {
			s.broadcast(Message{Type: api.NotifyStateUpdated, Payload: &u.Payload}, u.Seq)
		}
	})
	s.zoneSub = bus.Subscribe(events.ZoneChanged, func(events.Event) {
		s.broadcast(Message{Type: api.NotifyZoneChanged}, 0)
	})
	return s
}

// Handler routes GET /state and GET /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.StateHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("observer listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) StateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.src.GetRenderState())
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		payload := s.src.GetRenderState()
		first, err := json.Marshal(Message{Type: api.NotifyStateUpdated, Payload: &payload})
		if err != nil {
			return
		}
		id, out := s.join(first)
		defer s.leave(id)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Clients have nothing to say; read only to notice the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// join registers a client with first already queued, ahead of any broadcast.
func (s *Server) join(first []byte) (uint64, chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ch := make(chan []byte, clientBuffer)
	ch <- first
	s.clients[s.nextID] = ch
	log.Debug("observer client joined", "id", s.nextID, "clients", len(s.clients))
	return s.nextID, ch
}

func (s *Server) leave(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
	log.Debug("observer client left", "id", id, "clients", len(s.clients))
}

// ClientCount is the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// broadcast queues msg for every client. A client whose queue is full misses
// it. A state message with a seq no newer than the last one sent is dropped.
func (s *Server) broadcast(msg Message, seq uint64) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Error("observer marshal failed", "type", msg.Type, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != 0 {
		if seq <= s.lastSeq {
			log.Debug("observer dropping stale state", "seq", seq, "last", s.lastSeq)
			return
		}
		s.lastSeq = seq
	}
	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			log.Debug("observer client behind, dropping message", "id", id, "type", msg.Type)
		}
	}
}

// Close stops relaying bus notifications.
func (s *Server) Close() {
	s.bus.Unsubscribe(events.StateUpdated, s.stateSub)
	s.bus.Unsubscribe(events.ZoneChanged, s.zoneSub)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
