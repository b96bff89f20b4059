// Package tools is the dispatch gateway between the AI assistant and the
// store. Every call is authorized with the same engine the HTTP API uses.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"go.uber.org/zap"
)

type Status string

const (
	StatusSuccess         Status = "success"
	StatusToolNotFound    Status = "tool_not_found"
	StatusInputInvalid    Status = "input_invalid"
	StatusForbidden       Status = "forbidden"
	StatusUnauthenticated Status = "unauthenticated"
	StatusError           Status = "error"
)

// User-facing messages. Denials never say why.
const (
	MessageForbidden       = "I can't do that."
	MessageUnauthenticated = "Please sign in first."
	MessageUnknownTool     = "I don't have a tool for that."
	MessageNotFound        = "I couldn't find that."
	MessageInternal        = "Something went wrong. Please try again."
)

type Result struct {
	Status  Status      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Scope says how a tool is authorized.
type Scope int

const (
	// ScopeEntity checks the tool's (resource, action) against one entity.
	ScopeEntity Scope = iota
	// ScopeMemberships lists across every workspace where the caller's role
	// grants the action, unless Target names a specific container.
	ScopeMemberships
)

// Call is what a tool's Run receives once authorization has passed.
type Call struct {
	UserID string
	Args   Args
	// Workspaces is set for membership-scoped calls: the only workspaces
	// Run may read from.
	Workspaces []string
}

type Tool struct {
	Name        string
	Description string
	Resource    authz.Resource
	Action      authz.Action
	Scope       Scope
	// Target derives the authorization context from args. A nil Target means
	// an empty context.
	Target func(Args) (authz.Context, error)
	Run    func(ctx context.Context, call Call) (interface{}, error)
}

// Declaration is the registry contract the assistant's intent mapping is
// written against.
type Declaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Resource    authz.Resource `json:"resource"`
	Action      authz.Action   `json:"action"`
	Scope       string         `json:"scope"`
}

// Gateway is stateless per call and safe for concurrent use.
type Gateway struct {
	engine *authz.Engine
	tools  map[string]Tool
	order  []string
	log    *zap.Logger
}

func NewGateway(engine *authz.Engine, log *zap.Logger, tools ...Tool) (*Gateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{engine: engine, tools: make(map[string]Tool, len(tools)), log: log}
	for _, t := range tools {
		if t.Name == "" || t.Run == nil {
			return nil, fmt.Errorf("tool %q: name and run are required", t.Name)
		}
		if _, dup := g.tools[t.Name]; dup {
			return nil, fmt.Errorf("tool %q registered twice", t.Name)
		}
		g.tools[t.Name] = t
		g.order = append(g.order, t.Name)
	}
	return g, nil
}

func (g *Gateway) Tools() []Declaration {
	out := make([]Declaration, 0, len(g.order))
	for _, name := range g.order {
		t := g.tools[name]
		scope := "entity"
		if t.Scope == ScopeMemberships {
			scope = "memberships"
		}
		out = append(out, Declaration{
			Name:        t.Name,
			Description: t.Description,
			Resource:    t.Resource,
			Action:      t.Action,
			Scope:       scope,
		})
	}
	return out
}

// Dispatch runs one tool call: lookup, derive context, authorize, execute.
func (g *Gateway) Dispatch(ctx context.Context, name string, args Args, userID string) Result {
	tool, ok := g.tools[name]
	if !ok {
		g.log.Info("unknown tool", zap.String("tool", name), zap.String("user_id", userID))
		return Result{Status: StatusToolNotFound, Message: MessageUnknownTool}
	}
	if args == nil {
		args = Args{}
	}
	log := g.log.With(
		zap.String("tool", name),
		zap.String("user_id", userID),
		zap.String("resource", string(tool.Resource)),
		zap.String("action", string(tool.Action)),
	)

	var target authz.Context
	if tool.Target != nil {
		var err error
		if target, err = tool.Target(args); err != nil {
			log.Info("tool input invalid", zap.Error(err))
			return Result{Status: StatusInputInvalid, Message: inputMessage(err)}
		}
	}

	call := Call{UserID: userID, Args: args}
	if tool.Scope == ScopeMemberships && target.EntityID == "" {
		workspaces, err := g.engine.AuthorizedWorkspaces(ctx, userID, tool.Resource, tool.Action)
		if err != nil {
			return g.failure(log, err)
		}
		call.Workspaces = workspaces
	} else if err := g.engine.MustAuthorize(ctx, userID, tool.Resource, tool.Action, target); err != nil {
		return g.failure(log, err)
	}

	data, err := tool.Run(ctx, call)
	if err != nil {
		return g.failure(log, err)
	}
	log.Debug("tool succeeded")
	return Result{Status: StatusSuccess, Data: data}
}

// failure maps an error onto a result. Only input problems are described to
// the user; forbidden reasons go to the log.
func (g *Gateway) failure(log *zap.Logger, err error) Result {
	switch authz.KindOf(err) {
	case authz.KindUnauthenticated:
		return Result{Status: StatusUnauthenticated, Message: MessageUnauthenticated}
	case authz.KindForbidden:
		log.Info("tool forbidden", zap.String("reason", err.Error()))
		return Result{Status: StatusForbidden, Message: MessageForbidden}
	case authz.KindToolInputInvalid, authz.KindValidation:
		log.Info("tool input invalid", zap.Error(err))
		return Result{Status: StatusInputInvalid, Message: inputMessage(err)}
	case authz.KindNotFound:
		return Result{Status: StatusError, Message: MessageNotFound}
	default:
		log.Error("tool failed", zap.Error(err))
		return Result{Status: StatusError, Message: MessageInternal}
	}
}

// inputMessage strips the sentinel prefix so the assistant sees only which
// argument was wrong.
func inputMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{authz.ErrToolInputInvalid, authz.ErrValidation} {
		prefix := sentinel.Error() + ": "
		if errors.Is(err, sentinel) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
