package authz

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Context names the entity a check is evaluated against. For CREATE it is the
// container the new entity will live in. EntityType defaults to the checked
// resource.
type Context struct {
	EntityType Resource
	EntityID   string
}

// On is shorthand for a Context naming an entity of the given type.
func On(resource Resource, id string) Context {
	return Context{EntityType: resource, EntityID: id}
}

// Decision is the outcome of one check. Reason is for server logs only.
type Decision struct {
	Allowed bool
	Role    Role
	Reason  string
}

// Engine answers can(user, resource, action, context).
type Engine struct {
	store     Store
	resolver  *Resolver
	overrides []Override
	guards    []Guard
	log       *zap.Logger
}

// NewEngine creates an engine with the default override and guard rules.
func NewEngine(store Store, log *zap.Logger) *Engine {
	return NewEngineWithRules(store, log, DefaultOverrides, DefaultGuards)
}

func NewEngineWithRules(store Store, log *zap.Logger, overrides []Override, guards []Guard) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:     store,
		resolver:  NewResolver(store),
		overrides: overrides,
		guards:    guards,
		log:       log,
	}
}

func (e *Engine) Resolver() *Resolver { return e.resolver }

// Can reports whether the action is allowed. Store failures are returned as
// errors, never as a silent deny.
func (e *Engine) Can(ctx context.Context, userID string, resource Resource, action Action, target Context) (bool, error) {
	d, err := e.Decide(ctx, userID, resource, action, target)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// MustAuthorize returns nil on allow, ErrUnauthenticated without an identity,
// and an error wrapping ErrForbidden on deny.
func (e *Engine) MustAuthorize(ctx context.Context, userID string, resource Resource, action Action, target Context) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	d, err := e.Decide(ctx, userID, resource, action, target)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return fmt.Errorf("%w: %s %s: %s", ErrForbidden, action, resource, d.Reason)
	}
	return nil
}

// Decide runs the full evaluation and explains the result.
func (e *Engine) Decide(ctx context.Context, userID string, resource Resource, action Action, target Context) (Decision, error) {
	if target.EntityType == "" {
		target.EntityType = resource
	}
	d, err := e.decide(ctx, userID, resource, action, target)
	if err != nil {
		e.log.Warn("authorization check failed",
			zap.String("user_id", userID),
			zap.String("resource", string(resource)),
			zap.String("action", string(action)),
			zap.String("entity_type", string(target.EntityType)),
			zap.String("entity_id", target.EntityID),
			zap.Error(err),
		)
		return Decision{}, err
	}
	e.log.Debug("authorization decision",
		zap.String("user_id", userID),
		zap.String("resource", string(resource)),
		zap.String("action", string(action)),
		zap.String("entity_type", string(target.EntityType)),
		zap.String("entity_id", target.EntityID),
		zap.String("role", string(d.Role)),
		zap.Bool("allowed", d.Allowed),
		zap.String("reason", d.Reason),
	)
	return d, nil
}

func (e *Engine) decide(ctx context.Context, userID string, resource Resource, action Action, target Context) (Decision, error) {
	if userID == "" {
		return Decision{Reason: "no identity"}, nil
	}

	if target.EntityID == "" {
		// nothing contains a new workspace, so any identity may create one
		if resource == ResourceWorkspace && action == ActionCreate {
			return Decision{Allowed: true, Reason: "workspace creation"}, nil
		}
		return Decision{Reason: "no target entity"}, nil
	}

	role, ok, err := e.resolver.ResolveWorkspaceRole(ctx, userID, target.EntityType, target.EntityID)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Reason: "no membership in owning workspace"}, nil
	}

	req := Request{UserID: userID, Role: role, Resource: resource, Action: action, Target: target}
	allowed := AllowedActions(role, resource)
	reason := "role policy"

	if !allowed.Has(action) {
		for _, o := range e.overrides {
			if !o.matches(req) {
				continue
			}
			applies, err := o.Applies(ctx, e.store, req)
			if err != nil {
				return Decision{}, err
			}
			if applies {
				allowed = allowed.Union(o.Grants)
				reason = "override " + o.Name
			}
		}
	}
	if !allowed.Has(action) {
		return Decision{Role: role, Reason: fmt.Sprintf("%s not granted to %s on %s", action, role, resource)}, nil
	}

	for _, g := range e.guards {
		if g.Resource != resource || g.Action != action {
			continue
		}
		denied, err := g.Denies(ctx, e.store, req)
		if err != nil {
			return Decision{}, err
		}
		if denied {
			return Decision{Role: role, Reason: "guard " + g.Name}, nil
		}
	}

	return Decision{Allowed: true, Role: role, Reason: reason}, nil
}

// AuthorizedWorkspaces returns the workspaces in which the user's role grants
// the action on the resource. List operations scope their queries to this set.
func (e *Engine) AuthorizedWorkspaces(ctx context.Context, userID string, resource Resource, action Action) ([]string, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	memberships, err := e.store.Memberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("memberships %s: %w", userID, err)
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if AllowedActions(m.Role, resource).Has(action) {
			ids = append(ids, m.WorkspaceID)
		}
	}
	return ids, nil
}
