package live

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"themtwo/backend/internal/state"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Subscribers only send pings and close frames
	maxMessageSize = 4 * 1024
)

// MessageTypeSnapshot tags a pushed snapshot.
const MessageTypeSnapshot = "snapshot"

// Message is the websocket envelope.
type Message struct {
	Type string          `json:"type"`
	Data *state.Snapshot `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// single implicit workspace without access control
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and streams snapshots until either side goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub, err := h.Subscribe(r.Context())
	if err != nil {
		conn.Close()
		return
	}

	h.logger.Info("Live subscriber connected",
		zap.String("subscriber_id", sub.ID),
		zap.String("remote", r.RemoteAddr),
	)

	go h.readPump(conn, sub)
	h.writePump(conn, sub)
}

// readPump only exists to process control frames and notice disconnects.
func (h *Hub) readPump(conn *websocket.Conn, sub *Subscriber) {
	defer h.Unsubscribe(sub)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				h.logger.Warn("WebSocket read error",
					zap.String("subscriber_id", sub.ID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case snap, ok := <-sub.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(Message{Type: MessageTypeSnapshot, Data: snap}); err != nil {
				h.logger.Debug("Snapshot write error",
					zap.String("subscriber_id", sub.ID),
					zap.Error(err),
				)
				h.Unsubscribe(sub)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unsubscribe(sub)
				return
			}
		}
	}
}
