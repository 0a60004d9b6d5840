package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The player runs from a local webview with no stable origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades the request and subscribes the connection to hub
func WebSocketHandler(hub *Hub, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithField("component", "websocket").WithError(err).Error("Failed to upgrade connection to WebSocket")
			return
		}

		client := &Client{
			ID:   uuid.New().String(),
			Hub:  hub,
			Send: make(chan []byte, 256),
		}

		// The first frame tells the subscriber which id the player API knows it by
		if welcome, err := encode(TypeWelcome, map[string]any{"client_id": client.ID}); err == nil {
			client.Send <- welcome
		}

		if !hub.Register(client) {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			conn.Close()
			return
		}

		go writePump(client, conn, log)
		go readPump(client, conn, log)

		log.WithFields(logrus.Fields{
			"client_id": client.ID,
			"component": "websocket",
		}).Info("New WebSocket connection established")
	}
}

// readPump only keeps the connection alive; subscribers never send commands
func readPump(client *Client, conn *websocket.Conn, log *logrus.Logger) {
	defer func() {
		client.Hub.Unregister(client)
		conn.Close()
		log.WithField("client_id", client.ID).Debug("WebSocket connection closed")
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithField("client_id", client.ID).WithError(err).Warn("WebSocket read error")
			}
			return
		}
	}
}

// writePump sends one websocket frame per event
func writePump(client *Client, conn *websocket.Conn, log *logrus.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithField("client_id", client.ID).WithError(err).Warn("Error writing message")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithField("client_id", client.ID).WithError(err).Warn("Error sending ping")
				return
			}
		}
	}
}
