package service

import (
	"errors"
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
)

func TestUserService_EnsureThenDelete(t *testing.T) {
	users := testutil.NewMemUserRepo()
	svc := NewUserService(users)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := svc.EnsureUser(ctx, "idp|alice", " Alice@Example.com ", "Alice", nil)
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if first.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", first.Email)
	}
	again, err := svc.EnsureUser(ctx, "idp|alice", "alice@example.com", "Alice A.", nil)
	if err != nil || again.ID != first.ID {
		t.Fatalf("expected the same user on second sign-in, got %v (%v)", again, err)
	}

	if err := svc.DeleteByExternalID(ctx, "idp|alice"); err != nil {
		t.Fatalf("DeleteByExternalID: %v", err)
	}
	if _, err := svc.GetByExternalID(ctx, "idp|alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteByExternalID(ctx, "idp|alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a second delete, got %v", err)
	}
	if err := svc.DeleteByExternalID(ctx, "  "); authz.KindOf(err) != authz.KindValidation {
		t.Errorf("expected validation error for blank id, got %v", err)
	}
}
