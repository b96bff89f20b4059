package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// Comment Service
// ============================================

var mentionPattern = regexp.MustCompile(`@\[[^\]]*\]\(([0-9a-fA-F-]{36})\)`)

type CommentService interface {
	Create(ctx context.Context, userID, taskID, content string) (*repository.Comment, error)
	ListByTask(ctx context.Context, userID, taskID string) ([]*repository.Comment, error)
	Update(ctx context.Context, userID, id, content string) (*repository.Comment, error)
	Delete(ctx context.Context, userID, id string) error
}

type commentService struct {
	base
	commentRepo repository.CommentRepository
}

func NewCommentService(b base, commentRepo repository.CommentRepository) CommentService {
	return &commentService{base: b, commentRepo: commentRepo}
}

func (s *commentService) Create(ctx context.Context, userID, taskID, content string) (*repository.Comment, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceComment, authz.ActionCreate, authz.On(authz.ResourceTask, taskID)); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment content is required")
	}
	comment := &repository.Comment{
		TaskID:         taskID,
		UserID:         &userID,
		Content:        content,
		MentionedUsers: ExtractMentions(content),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceComment, comment.ID, "created", map[string]interface{}{"taskId": taskID})
	return comment, nil
}

func (s *commentService) ListByTask(ctx context.Context, userID, taskID string) ([]*repository.Comment, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceComment, authz.ActionRead, authz.On(authz.ResourceTask, taskID)); err != nil {
		return nil, err
	}
	return s.commentRepo.FindByTaskID(ctx, taskID)
}

func (s *commentService) Update(ctx context.Context, userID, id, content string) (*repository.Comment, error) {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceComment, authz.ActionUpdate, authz.On(authz.ResourceComment, id)); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment content is required")
	}
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrNotFound
	}
	comment.Content = content
	comment.MentionedUsers = ExtractMentions(content)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	s.record(ctx, userID, authz.ResourceComment, id, "updated", nil)
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, userID, id string) error {
	if err := s.guard.Authorize(ctx, userID, authz.ResourceComment, authz.ActionDelete, authz.On(authz.ResourceComment, id)); err != nil {
		return err
	}
	changes := s.deletionChanges(ctx, authz.ResourceComment, id)
	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, userID, authz.ResourceComment, id, "deleted", changes)
	return nil
}

// ExtractMentions returns the distinct user ids referenced as @[Name](id).
func ExtractMentions(content string) []string {
	seen := map[string]bool{}
	mentions := []string{}
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		id := strings.ToLower(m[1])
		if !seen[id] {
			seen[id] = true
			mentions = append(mentions, id)
		}
	}
	return mentions
}
