package realtime

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// Serve attaches an upgraded connection to the hub and blocks until the
// client goes away. Incoming frames are only read to notice the close.
func (h *Hub) Serve(c *websocket.Conn, userName string, admin bool) {
	client := &Client{
		ID:       uuid.New().String(),
		UserName: userName,
		Admin:    admin,
		Conn:     NewWebSocketConn(c),
		Send:     make(chan []byte, 256),
	}
	h.RegisterClient(client)
	defer h.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("websocket write", zap.String("user", userName), zap.Error(err))
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			h.log.Debug("websocket closed", zap.String("user", userName), zap.Error(err))
			return
		}
	}
}
