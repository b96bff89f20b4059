package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"go.uber.org/zap"
)

// The authorization sentinels are shared so handlers can branch with a single
// errors.Is or authz.KindOf.
var (
	ErrUnauthenticated = authz.ErrUnauthenticated
	ErrNotFound        = authz.ErrNotFound
	ErrForbidden       = authz.ErrForbidden

	ErrInvalidInput      = fmt.Errorf("%w: invalid input", authz.ErrValidation)
	ErrConflict          = errors.New("resource already exists")
	ErrCreatorImmutable  = errors.New("cannot remove or demote the workspace creator")
	ErrAssigneeNotMember = fmt.Errorf("%w: assignee is not a member of the workspace", authz.ErrValidation)
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ============================================
// Services Container
// ============================================

type Services struct {
	User       UserService
	Workspace  WorkspaceService
	Member     MemberService
	Project    ProjectService
	Task       TaskService
	Bug        BugService
	Document   DocumentService
	Comment    CommentService
	Attachment AttachmentService
	Activity   ActivityService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Repos  *repository.Repositories
	Engine *authz.Engine
	Log    *zap.Logger

	// Publisher is optional; without it activity is only stored.
	Publisher Publisher
}

func NewServices(deps *ServiceDeps) *Services {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	activity := newActivityService(deps.Repos.ActivityRepo, deps.Engine, deps.Publisher, log)
	b := base{
		guard:    NewGuard(deps.Engine),
		activity: activity,
		log:      log,
	}

	return &Services{
		User:       NewUserService(deps.Repos.UserRepo),
		Workspace:  NewWorkspaceService(b, deps.Repos.WorkspaceRepo),
		Member:     NewMemberService(b, deps.Repos.WorkspaceRepo, deps.Repos.UserRepo),
		Project:    NewProjectService(b, deps.Repos.ProjectRepo),
		Task:       NewTaskService(b, deps.Repos.TaskRepo),
		Bug:        NewBugService(b, deps.Repos.BugRepo),
		Document:   NewDocumentService(b, deps.Repos.DocumentRepo),
		Comment:    NewCommentService(b, deps.Repos.CommentRepo),
		Attachment: NewAttachmentService(b, deps.Repos.AttachmentRepo),
		Activity:   activity,
	}
}

// base is shared by every domain service: authorize first, then write, then
// record the activity.
type base struct {
	guard    *Guard
	activity ActivityService
	log      *zap.Logger
}

func (b base) record(ctx context.Context, userID string, resource authz.Resource, entityID, action string, changes map[string]interface{}) {
	if err := b.activity.Record(ctx, userID, resource, entityID, action, changes); err != nil {
		b.log.Warn("failed to record activity",
			zap.String("entity_type", string(resource)),
			zap.String("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

// deletionChanges captures the owning workspace before a delete, since the
// entity no longer resolves once it is gone.
func (b base) deletionChanges(ctx context.Context, resource authz.Resource, id string) map[string]interface{} {
	ws, err := b.guard.WorkspaceOf(ctx, resource, id)
	if err != nil {
		return nil
	}
	return map[string]interface{}{"workspaceId": ws}
}
