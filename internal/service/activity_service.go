package service

import (
	"context"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"go.uber.org/zap"
)

// ============================================
// Activity Service
// ============================================

const defaultActivityLimit = 50

// ActivityService writes and reads the audit trail.
type ActivityService interface {
	// Record appends an entry. Callers invoke it only after a successful,
	// authorized mutation.
	Record(ctx context.Context, userID string, resource authz.Resource, entityID, action string, changes map[string]interface{}) error
	ForEntity(ctx context.Context, userID string, resource authz.Resource, entityID string, limit int) ([]*repository.Activity, error)
	Mine(ctx context.Context, userID string, limit int) ([]*repository.Activity, error)
}

// Publisher fans a recorded activity out to live subscribers of its
// workspace. It must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, workspaceID string, activity *repository.Activity)
}

type activityService struct {
	activityRepo repository.ActivityRepository
	guard        *Guard
	publisher    Publisher
	log          *zap.Logger
}

func NewActivityService(activityRepo repository.ActivityRepository, engine *authz.Engine, log *zap.Logger) ActivityService {
	return newActivityService(activityRepo, engine, nil, log)
}

func newActivityService(activityRepo repository.ActivityRepository, engine *authz.Engine, publisher Publisher, log *zap.Logger) *activityService {
	return &activityService{activityRepo: activityRepo, guard: NewGuard(engine), publisher: publisher, log: log}
}

func (s *activityService) Record(ctx context.Context, userID string, resource authz.Resource, entityID, action string, changes map[string]interface{}) error {
	activity := &repository.Activity{
		EntityType: string(resource),
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		Changes:    changes,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return err
	}
	s.log.Debug("activity recorded",
		zap.String("activity_id", activity.ID),
		zap.String("entity_type", activity.EntityType),
		zap.String("action", action),
	)

	if s.publisher != nil {
		if workspaceID, ok := s.workspaceFor(ctx, resource, entityID, changes); ok {
			s.publisher.Publish(ctx, workspaceID, activity)
		}
	}
	return nil
}

// workspaceFor finds where to publish. Deleted entities no longer resolve, so
// callers may pass the workspace in changes["workspaceId"].
func (s *activityService) workspaceFor(ctx context.Context, resource authz.Resource, entityID string, changes map[string]interface{}) (string, bool) {
	if ws, ok := changes["workspaceId"].(string); ok && ws != "" {
		return ws, true
	}
	ws, err := s.guard.WorkspaceOf(ctx, resource, entityID)
	if err != nil {
		s.log.Debug("activity not published", zap.String("entity_id", entityID), zap.Error(err))
		return "", false
	}
	return ws, true
}

// ForEntity requires READ on the entity itself.
func (s *activityService) ForEntity(ctx context.Context, userID string, resource authz.Resource, entityID string, limit int) ([]*repository.Activity, error) {
	if err := s.guard.Authorize(ctx, userID, resource, authz.ActionRead, authz.On(resource, entityID)); err != nil {
		return nil, err
	}
	return s.activityRepo.FindByEntity(ctx, string(resource), entityID, clampLimit(limit))
}

func (s *activityService) Mine(ctx context.Context, userID string, limit int) ([]*repository.Activity, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return s.activityRepo.FindByUser(ctx, userID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return defaultActivityLimit
	}
	return limit
}
