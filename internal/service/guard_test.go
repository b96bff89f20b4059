package service

import (
	"errors"
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
)

func TestGuard_AllowedReturnsNil(t *testing.T) {
	f := newFixture()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := f.b.guard.Authorize(ctx, f.alice, authz.ResourceTask, authz.ActionDelete, authz.On(authz.ResourceTask, f.t)); err != nil {
		t.Errorf("expected admin delete to be allowed, got %v", err)
	}
}

func TestGuard_MemberDeniedIsForbidden(t *testing.T) {
	f := newFixture()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := f.b.guard.Authorize(ctx, f.bob, authz.ResourceTask, authz.ActionDelete, authz.On(authz.ResourceTask, f.t))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for a member, got %v", err)
	}
}

func TestGuard_OutsiderDeniedIsNotFound(t *testing.T) {
	f := newFixture()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := f.b.guard.Authorize(ctx, f.carol, authz.ResourceTask, authz.ActionRead, authz.On(authz.ResourceTask, f.t))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a non-member, got %v", err)
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("a non-member must not learn the entity exists")
	}
}

func TestGuard_MissingEntityIsNotFound(t *testing.T) {
	f := newFixture()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := f.b.guard.Authorize(ctx, f.alice, authz.ResourceTask, authz.ActionRead, authz.On(authz.ResourceTask, testutil.NewID()))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing task, got %v", err)
	}
}

func TestGuard_Unauthenticated(t *testing.T) {
	f := newFixture()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := f.b.guard.Authorize(ctx, "", authz.ResourceTask, authz.ActionRead, authz.On(authz.ResourceTask, f.t))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGuard_StoreErrorPropagates(t *testing.T) {
	f := newFixture()
	boom := errors.New("db down")
	f.store.Err = boom
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := f.b.guard.Authorize(ctx, f.alice, authz.ResourceTask, authz.ActionRead, authz.On(authz.ResourceTask, f.t))
	if !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestGuard_WorkspaceOf(t *testing.T) {
	f := newFixture()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws, err := f.b.guard.WorkspaceOf(ctx, authz.ResourceTask, f.t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws != f.w {
		t.Errorf("expected workspace %s, got %s", f.w, ws)
	}
	if _, err := f.b.guard.WorkspaceOf(ctx, authz.ResourceTask, testutil.NewID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
