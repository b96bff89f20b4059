// Package authz decides whether a user may perform an action on a resource.
//
// Authorization is always evaluated against the caller's membership role in the
// workspace that owns the entity. The role never comes from anywhere else.
package authz

import (
	"fmt"
	"strings"
)

// ============================================
// Roles, Resources, Actions
// ============================================

type Role string

const (
	RoleWorkspaceCreator Role = "WORKSPACE_CREATOR"
	RoleWorkspaceAdmin   Role = "WORKSPACE_ADMIN"
	RoleProjectManager   Role = "PROJECT_MANAGER"
	RoleTeamLead         Role = "TEAM_LEAD"
	RoleDeveloper        Role = "DEVELOPER"
	RoleStakeholder      Role = "STAKEHOLDER"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{
	RoleWorkspaceCreator,
	RoleWorkspaceAdmin,
	RoleProjectManager,
	RoleTeamLead,
	RoleDeveloper,
	RoleStakeholder,
}

// Outranks reports whether r is strictly more privileged than other. Unknown
// roles rank below every known one.
func (r Role) Outranks(other Role) bool {
	return roleRank(r) < roleRank(other)
}

func roleRank(r Role) int {
	for i, known := range Roles {
		if r == known {
			return i
		}
	}
	return len(Roles)
}

type Resource string

const (
	ResourceWorkspace  Resource = "WORKSPACE"
	ResourceProject    Resource = "PROJECT"
	ResourceTask       Resource = "TASK"
	ResourceBug        Resource = "BUG"
	ResourceDocument   Resource = "DOCUMENT"
	ResourceComment    Resource = "COMMENT"
	ResourceAttachment Resource = "ATTACHMENT"
	ResourceMember     Resource = "MEMBER"
)

var Resources = []Resource{
	ResourceWorkspace,
	ResourceProject,
	ResourceTask,
	ResourceBug,
	ResourceDocument,
	ResourceComment,
	ResourceAttachment,
	ResourceMember,
}

type Action string

const (
	ActionCreate       Action = "CREATE"
	ActionRead         Action = "READ"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionAssign       Action = "ASSIGN"
	ActionInvite       Action = "INVITE"
	ActionRemoveMember Action = "REMOVE_MEMBER"
)

var Actions = []Action{
	ActionCreate,
	ActionRead,
	ActionUpdate,
	ActionDelete,
	ActionAssign,
	ActionInvite,
	ActionRemoveMember,
}

// ParseRole converts a stored role value. It matches exactly: anything
// outside the enumeration, including a differently cased name, is an error
// and there is no fallback role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// ParseRoleInput accepts a role typed by a user or the assistant, where case
// and surrounding space don't matter. Never use it on stored values.
func ParseRoleInput(s string) (Role, error) {
	return ParseRole(strings.ToUpper(strings.TrimSpace(s)))
}

func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	for _, known := range Resources {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResource, s)
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// ============================================
// Action sets
// ============================================

// ActionSet is a bitset over Actions.
type ActionSet uint16

func actionBit(a Action) ActionSet {
	for i, known := range Actions {
		if a == known {
			return 1 << uint(i)
		}
	}
	return 0
}

// NewActionSet builds a set from the given actions. Unknown actions are ignored.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s |= actionBit(a)
	}
	return s
}

// AllActions contains every action in the enumeration.
var AllActions = NewActionSet(Actions...)

func (s ActionSet) Has(a Action) bool {
	bit := actionBit(a)
	return bit != 0 && s&bit == bit
}

func (s ActionSet) Union(other ActionSet) ActionSet { return s | other }

func (s ActionSet) SubsetOf(other ActionSet) bool { return s&^other == 0 }

func (s ActionSet) Empty() bool { return s == 0 }

// Actions returns the members of the set in enumeration order.
func (s ActionSet) Actions() []Action {
	var out []Action
	for _, a := range Actions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s ActionSet) String() string {
	parts := make([]string, 0, len(Actions))
	for _, a := range s.Actions() {
		parts = append(parts, string(a))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// ============================================
// Policy Table
// ============================================

var (
	opC   = NewActionSet(ActionCreate)
	opR   = NewActionSet(ActionRead)
	opU   = NewActionSet(ActionUpdate)
	opD   = NewActionSet(ActionDelete)
	opAsg = NewActionSet(ActionAssign)
	opInv = NewActionSet(ActionInvite)
)

// policyTable is filled once at package init and only read afterwards.
var policyTable = map[Role]map[Resource]ActionSet{
	RoleWorkspaceCreator: {
		ResourceWorkspace:  AllActions,
		ResourceProject:    AllActions,
		ResourceTask:       AllActions,
		ResourceBug:        AllActions,
		ResourceDocument:   AllActions,
		ResourceComment:    AllActions,
		ResourceAttachment: AllActions,
		ResourceMember:     AllActions,
	},
	RoleWorkspaceAdmin: {
		ResourceWorkspace:  opC | opR | opU,
		ResourceProject:    AllActions,
		ResourceTask:       AllActions,
		ResourceBug:        AllActions,
		ResourceDocument:   AllActions,
		ResourceComment:    AllActions,
		ResourceAttachment: AllActions,
		ResourceMember:     AllActions,
	},
	RoleProjectManager: {
		ResourceWorkspace:  opR,
		ResourceProject:    opC | opR | opU | opD,
		ResourceTask:       opC | opR | opU | opD | opAsg,
		ResourceBug:        opC | opR | opU | opD | opAsg,
		ResourceDocument:   opC | opR | opU | opD,
		ResourceComment:    opC | opR | opU | opD,
		ResourceAttachment: opC | opR | opD,
		ResourceMember:     opR | opInv,
	},
	RoleTeamLead: {
		ResourceWorkspace:  opR,
		ResourceProject:    opR | opU,
		ResourceTask:       opC | opR | opU | opAsg,
		ResourceBug:        opC | opR | opU | opAsg,
		ResourceDocument:   opC | opR | opU,
		ResourceComment:    opC | opR | opU,
		ResourceAttachment: opC | opR,
		ResourceMember:     opR,
	},
	RoleDeveloper: {
		ResourceWorkspace:  opR,
		ResourceProject:    opR,
		ResourceTask:       opC | opR,
		ResourceBug:        opC | opR,
		ResourceDocument:   opR,
		ResourceComment:    opC | opR,
		ResourceAttachment: opC | opR,
		ResourceMember:     opR,
	},
	RoleStakeholder: {
		ResourceWorkspace:  opR,
		ResourceProject:    opR,
		ResourceTask:       opR,
		ResourceBug:        opC | opR,
		ResourceDocument:   opR,
		ResourceComment:    opC | opR,
		ResourceAttachment: opR,
		ResourceMember:     opR,
	},
}

// AllowedActions returns the base permissions for a role on a resource.
// It never fails: unknown roles or resources get the empty set.
func AllowedActions(role Role, resource Resource) ActionSet {
	return policyTable[role][resource]
}
