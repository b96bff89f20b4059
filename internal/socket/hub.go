// Package socket streams workspace activity to connected clients over
// WebSocket. Every delivery is authorized again, so a user removed from a
// workspace stops receiving its events without reconnecting.
package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageActivity MessageType = "activity"
	MessageAck      MessageType = "ack"
	MessageError    MessageType = "error"
	MessagePing     MessageType = "ping"
	MessagePong     MessageType = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Authorizer is the slice of authz.Engine the hub needs.
type Authorizer interface {
	Can(ctx context.Context, userID string, resource authz.Resource, action authz.Action, target authz.Context) (bool, error)
}

// Client represents a connected WebSocket client
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan []byte
	Rooms  map[string]bool // workspace:<id>
	mu     sync.Mutex
}

// Hub maintains the set of active clients and their workspace rooms.
type Hub struct {
	clients     map[*Client]bool
	roomClients map[string]map[*Client]bool

	authz Authorizer
	log   *zap.Logger
	mu    sync.RWMutex
}

func NewHub(authorizer Authorizer, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		roomClients: make(map[string]map[*Client]bool),
		authz:       authorizer,
		log:         log.Named("socket"),
	}
}

func workspaceRoom(workspaceID string) string {
	return "workspace:" + workspaceID
}

// Run pings clients until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-pingTicker.C:
			h.pingClients()

		case <-ctx.Done():
			h.closeAll()
			h.log.Info("hub stopped")
			return
		}
	}
}

// Register must complete before the client's pumps start.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.log.Debug("client registered",
		zap.String("user_id", client.UserID),
		zap.String("client_id", client.ID),
		zap.Int("total_clients", len(h.clients)),
	)
}

// Unregister is idempotent.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	client.mu.Lock()
	for room := range client.Rooms {
		if clients, ok := h.roomClients[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.roomClients, room)
			}
		}
	}
	client.mu.Unlock()

	close(client.Send)
	h.log.Debug("client disconnected",
		zap.String("user_id", client.UserID),
		zap.String("client_id", client.ID),
		zap.Int("total_clients", len(h.clients)),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
	}
	h.roomClients = make(map[string]map[*Client]bool)
}

func (h *Hub) pingClients() {
	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		h.trySend(client, data)
	}
}

// trySend drops a client whose buffer is full. Callers hold h.mu.
func (h *Hub) trySend(client *Client, data []byte) bool {
	select {
	case client.Send <- data:
		return true
	default:
		go h.Unregister(client)
		return false
	}
}

// ============================================
// Room Management
// ============================================

// Subscribe joins the client to a workspace room when the user may read the
// workspace. A missing workspace and a denied one look the same.
func (h *Hub) Subscribe(ctx context.Context, client *Client, workspaceID string) (bool, error) {
	ok, err := h.authz.Can(ctx, client.UserID, authz.ResourceWorkspace, authz.ActionRead, authz.On(authz.ResourceWorkspace, workspaceID))
	if err != nil || !ok {
		return false, err
	}

	room := workspaceRoom(workspaceID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return false, nil
	}

	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true
	return true, nil
}

func (h *Hub) Unsubscribe(client *Client, workspaceID string) {
	room := workspaceRoom(workspaceID)
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}
}

// ============================================
// Query Methods
// ============================================

// ConnectedClients returns total connected clients
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients subscribed to a workspace.
func (h *Hub) RoomSize(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomClients[workspaceRoom(workspaceID)])
}
