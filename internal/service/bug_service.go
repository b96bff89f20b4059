package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/types"
)

// ============================================
// Bug Service
// ============================================

type BugService interface {
	Report(ctx context.Context, userID, projectID, title string, description *string, severity string) (*repository.Bug, error)
	GetByID(ctx context.Context, userID, id string) (*repository.Bug, error)
	ListByProject(ctx context.Context, userID, projectID string) ([]*repository.Bug, error)
	UpdateStatus(ctx context.Context, userID, id, status string) (*repository.Bug, error)
	Assign(ctx context.Context, userID, id string, assigneeID *string) (*repository.Bug, error)
	Delete(ctx context.Context, userID, id string) error
}

type bugService struct {
	base
	bugRepo repository.BugRepository
}

func NewBugService(b base, bugRepo repository.BugRepository) BugService {
	return &bugService{base: b, bugRepo: bugRepo}
}

func (s *bugService) Report(ctx context.Context, userID, projectID, title string, description *string, severity string) (*repository.Bug, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceBug, authz.ActionCreate, authz.On(authz.ResourceProject, projectID)); err != nil {
		return nil, err
	}
	bug := &repository.Bug{
		ProjectID:   projectID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Severity:    defaultString(severity, types.SeverityMinor),
		Status:      types.BugOpen,
		ReporterID:  &userID,
	}
	if bug.Title == "" {
		return nil, invalid("title is required")
	}
	if !types.IsValidSeverity(bug.Severity) {
		return nil, invalid("unknown severity %q", bug.Severity)
	}

	if err := s.bugRepo.Create(ctx, bug); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceBug, bug.ID, "reported", map[string]interface{}{
		"title":    bug.Title,
		"severity": bug.Severity,
	})
	return bug, nil
}

func (s *bugService) GetByID(ctx context.Context, userID, id string) (*repository.Bug, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceBug, authz.ActionRead, authz.On(authz.ResourceBug, id)); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *bugService) ListByProject(ctx context.Context, userID, projectID string) ([]*repository.Bug, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceBug, authz.ActionRead, authz.On(authz.ResourceProject, projectID)); err != nil {
		return nil, err
	}
	return s.bugRepo.FindByProjectID(ctx, projectID)
}

// UpdateStatus is open to the bug's reporter and assignee through the
// participant override, on top of the role policy.
func (s *bugService) UpdateStatus(ctx context.Context, userID, id, status string) (*repository.Bug, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceBug, authz.ActionUpdate, authz.On(authz.ResourceBug, id)); err != nil {
		return nil, err
	}
	if !types.IsValidBugStatus(status) {
		return nil, invalid("unknown status %q", status)
	}
	bug, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := bug.Status
	if err := s.bugRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	bug.Status = status

	s.record(ctx, userID, authz.ResourceBug, id, "status_changed", map[string]interface{}{"from": previous, "to": status})
	return bug, nil
}

func (s *bugService) Assign(ctx context.Context, userID, id string, assigneeID *string) (*repository.Bug, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceBug, authz.ActionAssign, authz.On(authz.ResourceBug, id)); err != nil {
		return nil, err
	}
	bug, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if assigneeID != nil {
		if err := s.checkAssignee(ctx, authz.ResourceBug, id, *assigneeID); err != nil {
			return nil, err
		}
	}
	if err := s.bugRepo.Assign(ctx, id, assigneeID); err != nil {
		return nil, err
	}
	bug.AssigneeID = assigneeID

	s.record(ctx, userID, authz.ResourceBug, id, "assigned", map[string]interface{}{"assigneeId": assigneeID})
	return bug, nil
}

func (s *bugService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceBug, authz.ActionDelete, authz.On(authz.ResourceBug, id)); err != nil {
		return err
	}
	changes := s.deletionChanges(ctx, authz.ResourceBug, id)
	if err := s.bugRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceBug, id, "deleted", changes)
	return nil
}

func (s *bugService) find(ctx context.Context, id string) (*repository.Bug, error) {
	bug, err := s.bugRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bug == nil {
		return nil, ErrNotFound
	}
	return bug, nil
}
