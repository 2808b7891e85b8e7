package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/collegemail/idverify/internal/pipeline"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The admin dashboard is served from a different origin in
		// development; production deployments sit behind a proxy.
		return true
	},
}

// eventHub fans pipeline lifecycle events out to websocket subscribers.
type eventHub struct {
	mu   sync.Mutex
	subs map[*websocket.Conn]chan pipeline.Event
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[*websocket.Conn]chan pipeline.Event)}
}

func (h *eventHub) subscribe(conn *websocket.Conn) chan pipeline.Event {
	ch := make(chan pipeline.Event, 16)
	h.mu.Lock()
	h.subs[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.subs[conn]; ok {
		delete(h.subs, conn)
		close(ch)
	}
	h.mu.Unlock()
}

// broadcast delivers the event to every subscriber, dropping it for slow
// consumers rather than blocking the pipeline.
func (h *eventHub) broadcast(ev pipeline.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// eventsHandler upgrades the connection and streams pipeline events until
// the client disconnects.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.hub.subscribe(conn)
	defer s.hub.unsubscribe(conn)

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.unsubscribe(conn)
				return
			}
		}
	}()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			slog.Debug("WebSocket write failed, dropping subscriber", "error", err)
			return
		}
	}
}
