package socket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/service"
	"go.uber.org/zap"
)

const deliverTimeout = 5 * time.Second

var _ service.Publisher = (*Hub)(nil)

// Publish sends an activity to the workspace room in the background.
func (h *Hub) Publish(ctx context.Context, workspaceID string, activity *repository.Activity) {
	msg := Message{
		Type: MessageActivity,
		Payload: map[string]interface{}{
			"workspaceId": workspaceID,
			"id":          activity.ID,
			"entityType":  activity.EntityType,
			"entityId":    activity.EntityID,
			"action":      activity.Action,
			"userId":      activity.UserID,
			"changes":     activity.Changes,
			"createdAt":   activity.CreatedAt,
		},
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal activity", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
		defer cancel()
		h.deliver(ctx, workspaceID, data)
	}()
}

// deliver re-checks READ on the workspace for every subscriber, since a
// membership may have been removed after the client subscribed. Denied
// clients are dropped from the room.
func (h *Hub) deliver(ctx context.Context, workspaceID string, data []byte) int {
	room := workspaceRoom(workspaceID)

	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.roomClients[room]))
	for client := range h.roomClients[room] {
		subscribers = append(subscribers, client)
	}
	h.mu.RUnlock()

	allowed := make([]*Client, 0, len(subscribers))
	for _, client := range subscribers {
		ok, err := h.authz.Can(ctx, client.UserID, authz.ResourceWorkspace, authz.ActionRead, authz.On(authz.ResourceWorkspace, workspaceID))
		if err != nil {
			h.log.Warn("delivery check failed", zap.String("user_id", client.UserID), zap.Error(err))
			continue
		}
		if !ok {
			h.Unsubscribe(client, workspaceID)
			continue
		}
		allowed = append(allowed, client)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, client := range allowed {
		if h.clients[client] && h.trySend(client, data) {
			sent++
		}
	}
	h.log.Debug("activity delivered", zap.String("workspace_id", workspaceID), zap.Int("sent", sent))
	return sent
}
