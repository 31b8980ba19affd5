package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PatrickWalther/twitch-favorites-go/internal/favorites"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is local-only; the browser overlay connects from the host
	// page's origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleEvents streams the store's state-changed and live-data-changed
// events to a websocket client, starting with a snapshot of both.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := s.store.Subscribe()
	defer s.store.Unsubscribe(events)

	if err := writeEvent(conn, wsMessage{Type: "state", Data: s.store.Document()}); err != nil {
		return
	}
	if err := writeEvent(conn, wsMessage{Type: "live", Data: s.store.LiveStatuses()}); err != nil {
		return
	}

	// Drain client frames so pings are answered and closes are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			var msg wsMessage
			switch e := event.(type) {
			case favorites.StateChanged:
				msg = wsMessage{Type: "state", Data: e.Document}
			case favorites.LiveDataChanged:
				msg = wsMessage{Type: "live", Data: e.Statuses}
			default:
				continue
			}
			if err := writeEvent(conn, msg); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg)
}
