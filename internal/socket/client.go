package socket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket connection constants
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize int64 = 4096

	subscribeTimeout = 5 * time.Second
)

// ClientMessage represents an incoming message from a client
type ClientMessage struct {
	Action      string `json:"action"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, userID string, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[string]bool),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Info("websocket closed", zap.String("user_id", c.UserID), zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError("malformed message")
		return
	}

	switch msg.Action {
	case "subscribe":
		if _, err := uuid.Parse(msg.WorkspaceID); err != nil {
			c.sendError("workspaceId must be a uuid")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		defer cancel()
		ok, err := c.Hub.Subscribe(ctx, c, msg.WorkspaceID)
		if err != nil {
			c.Hub.log.Warn("subscribe check failed", zap.String("user_id", c.UserID), zap.Error(err))
		}
		if !ok {
			c.sendError("workspace not available")
			return
		}
		c.send(MessageAck, map[string]interface{}{"action": "subscribed", "workspaceId": msg.WorkspaceID})

	case "unsubscribe":
		c.Hub.Unsubscribe(c, msg.WorkspaceID)
		c.send(MessageAck, map[string]interface{}{"action": "unsubscribed", "workspaceId": msg.WorkspaceID})

	case "ping":
		c.send(MessagePong, map[string]interface{}{"time": time.Now().Unix()})

	default:
		c.sendError("unknown action")
	}
}

func (c *Client) sendError(reason string) {
	c.send(MessageError, map[string]interface{}{"message": reason})
}

func (c *Client) send(msgType MessageType, payload map[string]interface{}) {
	data, _ := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})

	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if !c.Hub.clients[c] {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.Hub.log.Warn("client send buffer full", zap.String("user_id", c.UserID))
	}
}
