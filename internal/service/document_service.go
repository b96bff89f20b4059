package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// Document Service
// ============================================

type DocumentService interface {
	Create(ctx context.Context, userID, projectID, title, content string) (*repository.Document, error)
	GetByID(ctx context.Context, userID, id string) (*repository.Document, error)
	ListByProject(ctx context.Context, userID, projectID string) ([]*repository.Document, error)
	Update(ctx context.Context, userID, id string, title, content *string) (*repository.Document, error)
	Delete(ctx context.Context, userID, id string) error
}

type documentService struct {
	base
	documentRepo repository.DocumentRepository
}

func NewDocumentService(b base, documentRepo repository.DocumentRepository) DocumentService {
	return &documentService{base: b, documentRepo: documentRepo}
}

func (s *documentService) Create(ctx context.Context, userID, projectID, title, content string) (*repository.Document, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceDocument, authz.ActionCreate, authz.On(authz.ResourceProject, projectID)); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title is required")
	}
	doc := &repository.Document{ProjectID: projectID, Title: title, Content: content, CreatedBy: &userID}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceDocument, doc.ID, "created", map[string]interface{}{"title": title})
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, userID, id string) (*repository.Document, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceDocument, authz.ActionRead, authz.On(authz.ResourceDocument, id)); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *documentService) ListByProject(ctx context.Context, userID, projectID string) ([]*repository.Document, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceDocument, authz.ActionRead, authz.On(authz.ResourceProject, projectID)); err != nil {
		return nil, err
	}
	return s.documentRepo.FindByProjectID(ctx, projectID)
}

func (s *documentService) Update(ctx context.Context, userID, id string, title, content *string) (*repository.Document, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceDocument, authz.ActionUpdate, authz.On(authz.ResourceDocument, id)); err != nil {
		return nil, err
	}
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	changes := map[string]interface{}{}
	if title != nil {
		if strings.TrimSpace(*title) == "" {
			return nil, invalid("title cannot be empty")
		}
		doc.Title = strings.TrimSpace(*title)
		changes["title"] = doc.Title
	}
	if content != nil {
		doc.Content = *content
		changes["content"] = true
	}
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceDocument, id, "updated", changes)
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceDocument, authz.ActionDelete, authz.On(authz.ResourceDocument, id)); err != nil {
		return err
	}
	changes := s.deletionChanges(ctx, authz.ResourceDocument, id)
	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceDocument, id, "deleted", changes)
	return nil
}

func (s *documentService) find(ctx context.Context, id string) (*repository.Document, error) {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}
