package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// Attachment Service
// ============================================

type AttachmentService interface {
	Create(ctx context.Context, userID string, attachment *repository.Attachment) (*repository.Attachment, error)
	GetByID(ctx context.Context, userID, id string) (*repository.Attachment, error)
	ListByComment(ctx context.Context, userID, commentID string) ([]*repository.Attachment, error)
	Delete(ctx context.Context, userID, id string) error
}

type attachmentService struct {
	base
	attachmentRepo repository.AttachmentRepository
}

func NewAttachmentService(b base, attachmentRepo repository.AttachmentRepository) AttachmentService {
	return &attachmentService{base: b, attachmentRepo: attachmentRepo}
}

// Create stores metadata only; the file itself lives in object storage.
func (s *attachmentService) Create(ctx context.Context, userID string, attachment *repository.Attachment) (*repository.Attachment, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceAttachment, authz.ActionCreate, authz.On(authz.ResourceComment, attachment.CommentID)); err != nil {
		return nil, err
	}
	attachment.Name = strings.TrimSpace(attachment.Name)
	if attachment.Name == "" || strings.TrimSpace(attachment.URL) == "" {
		return nil, invalid("name and url are required")
	}
	if attachment.Size < 0 {
		return nil, invalid("size cannot be negative")
	}
	attachment.UploadedBy = &userID

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceAttachment, attachment.ID, "uploaded", map[string]interface{}{
		"name":      attachment.Name,
		"commentId": attachment.CommentID,
	})
	return attachment, nil
}

func (s *attachmentService) GetByID(ctx context.Context, userID, id string) (*repository.Attachment, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceAttachment, authz.ActionRead, authz.On(authz.ResourceAttachment, id)); err != nil {
		return nil, err
	}
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attachment == nil {
		return nil, ErrNotFound
	}
	return attachment, nil
}

func (s *attachmentService) ListByComment(ctx context.Context, userID, commentID string) ([]*repository.Attachment, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceAttachment, authz.ActionRead, authz.On(authz.ResourceComment, commentID)); err != nil {
		return nil, err
	}
	return s.attachmentRepo.FindByCommentID(ctx, commentID)
}

func (s *attachmentService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceAttachment, authz.ActionDelete, authz.On(authz.ResourceAttachment, id)); err != nil {
		return err
	}
	changes := s.deletionChanges(ctx, authz.ResourceAttachment, id)
	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceAttachment, id, "deleted", changes)
	return nil
}
