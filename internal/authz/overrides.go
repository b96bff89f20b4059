package authz

import (
	"context"
	"fmt"
)

// Request is a single authorization question after the role has been resolved.
type Request struct {
	UserID   string
	Role     Role
	Resource Resource
	Action   Action
	Target   Context
}

// Override grants actions beyond the base policy for one specific entity.
// Overrides only ever add permissions.
type Override struct {
	Name      string
	Roles     []Role
	Resources []Resource
	Grants    ActionSet
	Applies   func(ctx context.Context, store Store, req Request) (bool, error)
}

func (o Override) matches(req Request) bool {
	// an override is about the entity itself, never its container
	if req.Target.EntityType != req.Resource || !o.Grants.Has(req.Action) {
		return false
	}
	return containsRole(o.Roles, req.Role) && containsResource(o.Resources, req.Resource)
}

// Guard denies an otherwise allowed action.
type Guard struct {
	Name     string
	Resource Resource
	Action   Action
	Denies   func(ctx context.Context, store Store, req Request) (bool, error)
}

// DefaultOverrides is the complete list of contextual grants. Anything not
// listed here does not exist.
var DefaultOverrides = []Override{
	{
		Name:      "assignee-or-reporter-update",
		Roles:     []Role{RoleDeveloper, RoleStakeholder},
		Resources: []Resource{ResourceTask, ResourceBug},
		Grants:    NewActionSet(ActionUpdate),
		Applies:   isParticipant,
	},
}

// DefaultGuards holds the rules that can downgrade an allow.
var DefaultGuards = []Guard{
	{
		Name:     "no-self-removal",
		Resource: ResourceMember,
		Action:   ActionRemoveMember,
		Denies:   isSelfRemoval,
	},
}

func isParticipant(ctx context.Context, store Store, req Request) (bool, error) {
	p, found, err := store.Participants(ctx, req.Resource, req.Target.EntityID)
	if err != nil {
		return false, fmt.Errorf("participants %s %s: %w", req.Resource, req.Target.EntityID, err)
	}
	if !found {
		return false, nil
	}
	if p.ReporterID == req.UserID {
		return true, nil
	}
	return p.AssigneeID != nil && *p.AssigneeID == req.UserID, nil
}

// isSelfRemoval also denies when the target is not a membership row, since
// the acting user cannot then be ruled out.
func isSelfRemoval(ctx context.Context, store Store, req Request) (bool, error) {
	if req.Target.EntityType != ResourceMember {
		return true, nil
	}
	ownerID, found, err := store.MemberUserID(ctx, req.Target.EntityID)
	if err != nil {
		return false, fmt.Errorf("membership owner %s: %w", req.Target.EntityID, err)
	}
	return !found || ownerID == req.UserID, nil
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func containsResource(resources []Resource, resource Resource) bool {
	for _, r := range resources {
		if r == resource {
			return true
		}
	}
	return false
}
