package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// User Service
// ============================================

// UserService maps identity-provider subjects onto local users.
type UserService interface {
	// EnsureUser creates the user on first sign-in and refreshes the profile
	// on later ones.
	EnsureUser(ctx context.Context, externalID, email, name string, avatar *string) (*repository.User, error)
	GetByID(ctx context.Context, id string) (*repository.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*repository.User, error)
	// DeleteByExternalID handles the identity provider's deletion event. The
	// user's memberships are removed with it.
	DeleteByExternalID(ctx context.Context, externalID string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) EnsureUser(ctx context.Context, externalID, email, name string, avatar *string) (*repository.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrUnauthenticated
	}
	user := &repository.User{
		ExternalID: externalID,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Name:       strings.TrimSpace(name),
		Avatar:     avatar,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *userService) GetByExternalID(ctx context.Context, externalID string) (*repository.User, error) {
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *userService) DeleteByExternalID(ctx context.Context, externalID string) error {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return invalid("external id is required")
	}
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	return s.userRepo.DeleteByExternalID(ctx, externalID)
}
