package socket

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Authenticate turns a raw identity token into a local user id.
type Authenticate func(ctx context.Context, token string) (string, error)

// Handler handles WebSocket connections
type Handler struct {
	hub          *Hub
	authenticate Authenticate
	upgrader     websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. allowedOrigins mirrors the CORS
// list; "*" allows any origin.
func NewHandler(hub *Hub, authenticate Authenticate, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:          hub,
		authenticate: authenticate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWebSocket takes the token from the query string because the browser
// WebSocket API cannot set headers; the Authorization header also works.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	userID, err := h.authenticate(c.Request.Context(), token)
	if err != nil {
		h.hub.log.Info("websocket token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if !errors.Is(err, websocket.ErrBadHandshake) {
			h.hub.log.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	client := NewClient(h.hub, userID, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
