package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// Workspace Service
// ============================================

type WorkspaceService interface {
	Create(ctx context.Context, userID, name string, description *string) (*repository.Workspace, error)
	GetByID(ctx context.Context, userID, id string) (*repository.Workspace, error)
	List(ctx context.Context, userID string) ([]*repository.Workspace, error)
	Update(ctx context.Context, userID, id string, name, description *string) (*repository.Workspace, error)
	Delete(ctx context.Context, userID, id string) error
}

type workspaceService struct {
	base
	workspaceRepo repository.WorkspaceRepository
}

func NewWorkspaceService(b base, workspaceRepo repository.WorkspaceRepository) WorkspaceService {
	return &workspaceService{base: b, workspaceRepo: workspaceRepo}
}

func (s *workspaceService) Create(ctx context.Context, userID, name string, description *string) (*repository.Workspace, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceWorkspace, authz.ActionCreate, authz.Context{}); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}

	workspace := &repository.Workspace{
		Name:        name,
		Description: description,
		CreatorID:   &userID,
	}
	if err := s.workspaceRepo.Create(ctx, workspace, authz.RoleWorkspaceCreator); err != nil {
		return nil, err
	}

	s.record(ctx, userID, authz.ResourceWorkspace, workspace.ID, "created", map[string]interface{}{"name": name})
	return workspace, nil
}

func (s *workspaceService) GetByID(ctx context.Context, userID, id string) (*repository.Workspace, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceWorkspace, authz.ActionRead, authz.On(authz.ResourceWorkspace, id)); err != nil {
		return nil, err
	}
	workspace, err := s.workspaceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, ErrNotFound
	}
	return workspace, nil
}

func (s *workspaceService) List(ctx context.Context, userID string) ([]*repository.Workspace, error) {
	ids, err := s.guard.Workspaces(ctx, userID, authz.ResourceWorkspace, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	return s.workspaceRepo.FindByIDs(ctx, ids)
}

func (s *workspaceService) Update(ctx context.Context, userID, id string, name, description *string) (*repository.Workspace, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceWorkspace, authz.ActionUpdate, authz.On(authz.ResourceWorkspace, id)); err != nil {
		return nil, err
	}
	workspace, err := s.workspaceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return nil, ErrNotFound
	}

	changes := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, invalid("name cannot be empty")
		}
		workspace.Name = trimmed
		changes["name"] = trimmed
	}
	if description != nil {
		workspace.Description = description
		changes["description"] = *description
	}

	if err := s.workspaceRepo.Update(ctx, workspace); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceWorkspace, id, "updated", changes)
	return workspace, nil
}

func (s *workspaceService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceWorkspace, authz.ActionDelete, authz.On(authz.ResourceWorkspace, id)); err != nil {
		return err
	}
	if err := s.workspaceRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceWorkspace, id, "deleted", nil)
	return nil
}
