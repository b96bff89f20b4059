package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// Project Service
// ============================================

type ProjectService interface {
	Create(ctx context.Context, userID, workspaceID, name, key string, description *string) (*repository.Project, error)
	GetByID(ctx context.Context, userID, id string) (*repository.Project, error)
	// List returns projects in workspaceID, or in every workspace the user can
	// read projects in when workspaceID is empty.
	List(ctx context.Context, userID, workspaceID string) ([]*repository.Project, error)
	Update(ctx context.Context, userID, id string, name, key, description *string) (*repository.Project, error)
	Delete(ctx context.Context, userID, id string) error
}

type projectService struct {
	base
	projectRepo repository.ProjectRepository
}

func NewProjectService(b base, projectRepo repository.ProjectRepository) ProjectService {
	return &projectService{base: b, projectRepo: projectRepo}
}

func (s *projectService) Create(ctx context.Context, userID, workspaceID, name, key string, description *string) (*repository.Project, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceProject, authz.ActionCreate, authz.On(authz.ResourceWorkspace, workspaceID)); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	key = strings.ToUpper(strings.TrimSpace(key))
	if name == "" || key == "" {
		return nil, invalid("name and key are required")
	}

	project := &repository.Project{
		WorkspaceID: workspaceID,
		Name:        name,
		Key:         key,
		Description: description,
		CreatedBy:   &userID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.record(ctx, userID, authz.ResourceProject, project.ID, "created", map[string]interface{}{
		"name":        name,
		"workspaceId": workspaceID,
	})
	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, userID, id string) (*repository.Project, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceProject, authz.ActionRead, authz.On(authz.ResourceProject, id)); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, userID, workspaceID string) ([]*repository.Project, error) {
	if workspaceID != "" {
		if err := s.guard.Authorize(ctx, userID, authz.ResourceProject, authz.ActionRead, authz.On(authz.ResourceWorkspace, workspaceID)); err != nil {
			return nil, err
		}
		return s.projectRepo.FindByWorkspaceIDs(ctx, []string{workspaceID})
	}
	ids, err := s.guard.Workspaces(ctx, userID, authz.ResourceProject, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	return s.projectRepo.FindByWorkspaceIDs(ctx, ids)
}

func (s *projectService) Update(ctx context.Context, userID, id string, name, key, description *string) (*repository.Project, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceProject, authz.ActionUpdate, authz.On(authz.ResourceProject, id)); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}

	changes := map[string]interface{}{}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, invalid("name cannot be empty")
		}
		project.Name = strings.TrimSpace(*name)
		changes["name"] = project.Name
	}
	if key != nil {
		if strings.TrimSpace(*key) == "" {
			return nil, invalid("key cannot be empty")
		}
		project.Key = strings.ToUpper(strings.TrimSpace(*key))
		changes["key"] = project.Key
	}
	if description != nil {
		project.Description = description
		changes["description"] = *description
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceProject, id, "updated", changes)
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceProject, authz.ActionDelete, authz.On(authz.ResourceProject, id)); err != nil {
		return err
	}
	changes := s.deletionChanges(ctx, authz.ResourceProject, id)
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceProject, id, "deleted", changes)
	return nil
}
