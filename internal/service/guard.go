package service

import (
	"context"
	"errors"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
)

// Guard wraps the engine for the direct API. After a denial it checks whether
// the caller may know the entity exists: non-members and missing entities get
// ErrNotFound, members get ErrForbidden. That visibility check only runs after the
// engine has said no.
type Guard struct {
	engine *authz.Engine
}

func NewGuard(engine *authz.Engine) *Guard {
	return &Guard{engine: engine}
}

func (g *Guard) Authorize(ctx context.Context, userID string, resource authz.Resource, action authz.Action, target authz.Context) error {
	err := g.engine.MustAuthorize(ctx, userID, resource, action, target)
	if err == nil || !errors.Is(err, authz.ErrForbidden) {
		return err
	}
	if target.EntityType == "" {
		target.EntityType = resource
	}
	if target.EntityID == "" {
		return err
	}

	_, member, perr := g.engine.Resolver().ResolveWorkspaceRole(ctx, userID, target.EntityType, target.EntityID)
	if perr != nil {
		return perr
	}
	if !member {
		return ErrNotFound
	}
	return err
}

// Workspaces returns the workspace ids list queries may read from.
func (g *Guard) Workspaces(ctx context.Context, userID string, resource authz.Resource, action authz.Action) ([]string, error) {
	return g.engine.AuthorizedWorkspaces(ctx, userID, resource, action)
}

// WorkspaceOf resolves the owning workspace of an entity the caller has
// already been authorized for.
func (g *Guard) WorkspaceOf(ctx context.Context, resource authz.Resource, id string) (string, error) {
	ws, found, err := g.engine.Resolver().WorkspaceOf(ctx, resource, id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return ws, nil
}

// RoleIn returns the caller's own role in a workspace.
func (g *Guard) RoleIn(ctx context.Context, userID, workspaceID string) (authz.Role, bool, error) {
	return g.engine.Resolver().ResolveWorkspaceRole(ctx, userID, authz.ResourceWorkspace, workspaceID)
}

// IsMember reports whether userID holds any role in the workspace.
func (g *Guard) IsMember(ctx context.Context, userID, workspaceID string) (bool, error) {
	_, ok, err := g.engine.Resolver().ResolveWorkspaceRole(ctx, userID, authz.ResourceWorkspace, workspaceID)
	return ok, err
}
