package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/types"
)

// ============================================
// Member Service
// ============================================

// MemberService manages workspace membership rows, the only source of roles.
type MemberService interface {
	List(ctx context.Context, userID, workspaceID string) ([]*repository.WorkspaceMember, error)
	Invite(ctx context.Context, userID, workspaceID, email string, role authz.Role) (*repository.WorkspaceMember, error)
	UpdateRole(ctx context.Context, userID, memberID string, role authz.Role) (*repository.WorkspaceMember, error)
	Remove(ctx context.Context, userID, memberID string) error
}

type memberService struct {
	base
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
}

func NewMemberService(b base, workspaceRepo repository.WorkspaceRepository, userRepo repository.UserRepository) MemberService {
	return &memberService{base: b, workspaceRepo: workspaceRepo, userRepo: userRepo}
}

func (s *memberService) List(ctx context.Context, userID, workspaceID string) ([]*repository.WorkspaceMember, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceMember, authz.ActionRead, authz.On(authz.ResourceWorkspace, workspaceID)); err != nil {
		return nil, err
	}
	return s.workspaceRepo.FindMembers(ctx, workspaceID)
}

// Invite adds an existing user (they must have signed in once) with the given
// role. The creator role is never handed out, and nobody grants a role above
// their own.
func (s *memberService) Invite(ctx context.Context, userID, workspaceID, email string, role authz.Role) (*repository.WorkspaceMember, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceMember, authz.ActionInvite, authz.On(authz.ResourceWorkspace, workspaceID)); err != nil {
		return nil, err
	}
	if role == authz.RoleWorkspaceCreator {
		return nil, invalid("role %s cannot be assigned", role)
	}
	if err := s.checkGrant(ctx, userID, workspaceID, role); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}

	invitee, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if invitee == nil {
		return nil, ErrNotFound
	}
	existing, err := s.workspaceRepo.FindMember(ctx, workspaceID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	member := &repository.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      invitee.ID,
		Role:        role,
		Status:      types.MemberActive,
		User:        invitee,
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.record(ctx, userID, authz.ResourceMember, member.ID, "invited", map[string]interface{}{
		"userId": invitee.ID,
		"role":   string(role),
	})
	return member, nil
}

func (s *memberService) UpdateRole(ctx context.Context, userID, memberID string, role authz.Role) (*repository.WorkspaceMember, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceMember, authz.ActionUpdate, authz.On(authz.ResourceMember, memberID)); err != nil {
		return nil, err
	}
	if role == authz.RoleWorkspaceCreator {
		return nil, invalid("role %s cannot be assigned", role)
	}
	member, err := s.workspaceRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotFound
	}
	if member.Role == authz.RoleWorkspaceCreator {
		return nil, ErrCreatorImmutable
	}
	if err := s.checkGrant(ctx, userID, member.WorkspaceID, role, member.Role); err != nil {
		return nil, err
	}

	previous := member.Role
	if err := s.workspaceRepo.UpdateMemberRole(ctx, memberID, role); err != nil {
		return nil, err
	}
	member.Role = role

	s.record(ctx, userID, authz.ResourceMember, memberID, "role_changed", map[string]interface{}{
		"from": string(previous),
		"to":   string(role),
	})
	return member, nil
}

// Remove deletes another member's row. Removing your own membership is denied
// by the engine; leaving a workspace is a separate flow.
func (s *memberService) Remove(ctx context.Context, userID, memberID string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceMember, authz.ActionRemoveMember, authz.On(authz.ResourceMember, memberID)); err != nil {
		return err
	}
	member, err := s.workspaceRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotFound
	}
	if member.Role == authz.RoleWorkspaceCreator {
		return ErrCreatorImmutable
	}
	if err := s.workspaceRepo.RemoveMember(ctx, memberID); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceMember, memberID, "removed", map[string]interface{}{
		"userId":      member.UserID,
		"workspaceId": member.WorkspaceID,
	})
	return nil
}

// checkGrant denies handing out, or changing, a role that outranks the
// actor's own role in the workspace.
func (s *memberService) checkGrant(ctx context.Context, userID, workspaceID string, roles ...authz.Role) error {
	actorRole, ok, err := s.guard.RoleIn(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	for _, role := range roles {
		if role.Outranks(actorRole) {
			return fmt.Errorf("%w: %s cannot grant or change %s", ErrForbidden, actorRole, role)
		}
	}
	return nil
}
