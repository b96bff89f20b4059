package service

import (
	"context"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/types"
)

// ============================================
// Task Service
// ============================================

type CreateTaskInput struct {
	ProjectID   string
	Title       string
	Description *string
	Status      string
	Priority    string
	AssigneeID  *string
	Labels      []string
	DueDate     *time.Time
}

// UpdateTaskInput only changes the fields that are set.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Labels      []string
	DueDate     *time.Time
}

type TaskService interface {
	Create(ctx context.Context, userID string, input CreateTaskInput) (*repository.Task, error)
	GetByID(ctx context.Context, userID, id string) (*repository.Task, error)
	ListByProject(ctx context.Context, userID, projectID string, status []string) ([]*repository.Task, error)
	ListAll(ctx context.Context, userID string) ([]*repository.Task, error)
	Update(ctx context.Context, userID, id string, input UpdateTaskInput) (*repository.Task, error)
	UpdateStatus(ctx context.Context, userID, id, status string) (*repository.Task, error)
	Assign(ctx context.Context, userID, id string, assigneeID *string) (*repository.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type taskService struct {
	base
	taskRepo repository.TaskRepository
}

func NewTaskService(b base, taskRepo repository.TaskRepository) TaskService {
	return &taskService{base: b, taskRepo: taskRepo}
}

func (s *taskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*repository.Task, error) {
	container := authz.On(authz.ResourceProject, input.ProjectID)
	if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionCreate, container); err != nil {
		return nil, err
	}
	// creating a task already assigned to someone is an assignment too
	if input.AssigneeID != nil {
		if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionAssign, container); err != nil {
			return nil, err
		}
		if err := s.checkAssignee(ctx, authz.ResourceProject, input.ProjectID, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := &repository.Task{
		ProjectID:   input.ProjectID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      defaultString(input.Status, types.StatusTodo),
		Priority:    defaultString(input.Priority, types.PriorityMedium),
		AssigneeID:  input.AssigneeID,
		ReporterID:  &userID,
		Labels:      input.Labels,
		DueDate:     input.DueDate,
	}
	if task.Title == "" {
		return nil, invalid("title is required")
	}
	if !types.IsValidTaskStatus(task.Status) {
		return nil, invalid("unknown status %q", task.Status)
	}
	if !types.IsValidPriority(task.Priority) {
		return nil, invalid("unknown priority %q", task.Priority)
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceTask, task.ID, "created", map[string]interface{}{
		"title":     task.Title,
		"projectId": task.ProjectID,
	})
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, userID, id string) (*repository.Task, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionRead, authz.On(authz.ResourceTask, id)); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *taskService) ListByProject(ctx context.Context, userID, projectID string, status []string) ([]*repository.Task, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionRead, authz.On(authz.ResourceProject, projectID)); err != nil {
		return nil, err
	}
	for _, st := range status {
		if !types.IsValidTaskStatus(st) {
			return nil, invalid("unknown status %q", st)
		}
	}
	return s.taskRepo.FindWithFilters(ctx, &repository.TaskFilters{
		ProjectIDs: []string{projectID},
		Status:     status,
	})
}

func (s *taskService) ListAll(ctx context.Context, userID string) ([]*repository.Task, error) {
	ids, err := s.guard.Workspaces(ctx, userID, authz.ResourceTask, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.FindByWorkspaceIDs(ctx, ids)
}

func (s *taskService) Update(ctx context.Context, userID, id string, input UpdateTaskInput) (*repository.Task, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionUpdate, authz.On(authz.ResourceTask, id)); err != nil {
		return nil, err
	}
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, invalid("title cannot be empty")
		}
		task.Title = strings.TrimSpace(*input.Title)
		changes["title"] = task.Title
	}
	if input.Description != nil {
		task.Description = input.Description
		changes["description"] = *input.Description
	}
	if input.Status != nil {
		if !types.IsValidTaskStatus(*input.Status) {
			return nil, invalid("unknown status %q", *input.Status)
		}
		changes["status"] = map[string]string{"from": task.Status, "to": *input.Status}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !types.IsValidPriority(*input.Priority) {
			return nil, invalid("unknown priority %q", *input.Priority)
		}
		task.Priority = *input.Priority
		changes["priority"] = task.Priority
	}
	if input.Labels != nil {
		task.Labels = input.Labels
		changes["labels"] = input.Labels
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
		changes["dueDate"] = input.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceTask, id, "updated", changes)
	return task, nil
}

func (s *taskService) UpdateStatus(ctx context.Context, userID, id, status string) (*repository.Task, error) {
	return s.Update(ctx, userID, id, UpdateTaskInput{Status: &status})
}

func (s *taskService) Assign(ctx context.Context, userID, id string, assigneeID *string) (*repository.Task, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionAssign, authz.On(authz.ResourceTask, id)); err != nil {
		return nil, err
	}
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil {
		if err := s.checkAssignee(ctx, authz.ResourceTask, id, *assigneeID); err != nil {
			return nil, err
		}
	}
	if err := s.taskRepo.Assign(ctx, id, assigneeID); err != nil {
		return nil, err
	}
	task.AssigneeID = assigneeID

	s.record(ctx, userID, authz.ResourceTask, id, "assigned", map[string]interface{}{"assigneeId": assigneeID})
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceTask, authz.ActionDelete, authz.On(authz.ResourceTask, id)); err != nil {
		return err
	}
	changes := s.deletionChanges(ctx, authz.ResourceTask, id)
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceTask, id, "deleted", changes)
	return nil
}

func (s *taskService) find(ctx context.Context, id string) (*repository.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

// checkAssignee requires the assignee to belong to the entity's workspace.
func (b base) checkAssignee(ctx context.Context, resource authz.Resource, id, assigneeID string) error {
	workspaceID, err := b.guard.WorkspaceOf(ctx, resource, id)
	if err != nil {
		return err
	}
	ok, err := b.guard.IsMember(ctx, assigneeID, workspaceID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssigneeNotMember
	}
	return nil
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
