package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For development: allow Vite dev origin ws://localhost:5173
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /ws/events?token=...
// Upgrades to a WebSocket and streams match_created / message_appended
// events for the authenticated user until the peer disconnects. Clients
// must treat a repeated match ID as a no-op; a reconnecting client
// re-fetches current state over the REST surface before resuming.
func wsEventsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", zap.Int("user_id", userID), zap.Error(err))
			return
		}

		sub := hub.Subscribe(userID)

		// Start writer
		go sessionWriter(conn, sub)
		// Start reader (blocks until the peer goes away)
		sessionReader(conn, hub, sub)
	}
}

func sessionReader(conn *websocket.Conn, hub *Hub, sub *session) {
	defer func() {
		hub.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// The stream is one-way; client frames only matter as liveness.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func sessionWriter(conn *websocket.Conn, sub *session) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
