package authz

import (
	"context"
	"fmt"
)

// Membership is one (workspace, role) pair held by a user.
type Membership struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        Role
}

// Participants are the people attached to a task or bug.
type Participants struct {
	AssigneeID *string
	ReporterID string
}

// Store is the read side of the persistent store. Implementations must not
// cache results across calls.
type Store interface {
	// ParentID returns the id of the entity that directly contains id.
	ParentID(ctx context.Context, resource Resource, id string) (string, bool, error)
	// Membership returns the user's role in the workspace, if any.
	Membership(ctx context.Context, userID, workspaceID string) (Role, bool, error)
	Memberships(ctx context.Context, userID string) ([]Membership, error)
	// Participants returns assignee/reporter of a TASK or BUG.
	Participants(ctx context.Context, resource Resource, id string) (Participants, bool, error)
	// MemberUserID returns the user that owns a workspace membership row.
	MemberUserID(ctx context.Context, membershipID string) (string, bool, error)
}

// parentOf is the containment chain, one hop per entry. WORKSPACE is the root.
var parentOf = map[Resource]Resource{
	ResourceAttachment: ResourceComment,
	ResourceComment:    ResourceTask,
	ResourceTask:       ResourceProject,
	ResourceBug:        ResourceProject,
	ResourceDocument:   ResourceProject,
	ResourceProject:    ResourceWorkspace,
	ResourceMember:     ResourceWorkspace,
}

// maxHops bounds the walk; the longest chain is ATTACHMENT -> WORKSPACE.
const maxHops = 4

// Resolver walks an entity up to its workspace and reads the caller's role there.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// WorkspaceOf returns the id of the workspace that owns the entity.
// found is false when any hop does not resolve.
func (r *Resolver) WorkspaceOf(ctx context.Context, resource Resource, id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}
	current, currentID := resource, id
	for hops := 0; current != ResourceWorkspace; hops++ {
		parent, ok := parentOf[current]
		if !ok || hops >= maxHops {
			return "", false, fmt.Errorf("%w: no containment chain for %s", ErrInvalidResource, resource)
		}
		parentID, found, err := r.store.ParentID(ctx, current, currentID)
		if err != nil {
			return "", false, fmt.Errorf("resolve %s %s: %w", current, currentID, err)
		}
		if !found || parentID == "" {
			return "", false, nil
		}
		current, currentID = parent, parentID
	}
	return currentID, true, nil
}

// ResolveWorkspaceRole returns the user's membership role in the workspace that
// owns the entity. A missing entity and a missing membership look the same.
func (r *Resolver) ResolveWorkspaceRole(ctx context.Context, userID string, resource Resource, id string) (Role, bool, error) {
	if userID == "" {
		return "", false, nil
	}
	workspaceID, found, err := r.WorkspaceOf(ctx, resource, id)
	if err != nil || !found {
		return "", false, err
	}
	role, ok, err := r.store.Membership(ctx, userID, workspaceID)
	if err != nil {
		return "", false, fmt.Errorf("membership %s/%s: %w", workspaceID, userID, err)
	}
	if !ok {
		return "", false, nil
	}
	return role, true, nil
}
