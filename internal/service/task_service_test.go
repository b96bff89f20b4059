package service

import (
	"errors"
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
	"github.com/Marga-Ghale/ora-authz/internal/types"
)

func TestTaskService_AssigneeUpdatesStatus(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.b, f.tasks)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task, err := svc.UpdateStatus(ctx, f.bob, f.t, types.StatusInProgress)
	if err != nil {
		t.Fatalf("expected assignee update to succeed, got %v", err)
	}
	if task.Status != types.StatusInProgress {
		t.Errorf("expected status %q, got %q", types.StatusInProgress, task.Status)
	}
	if f.activity.count() != 1 {
		t.Errorf("expected 1 activity entry, got %d", f.activity.count())
	}
}

func TestTaskService_InvalidStatusAfterAuthorization(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.b, f.tasks)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := svc.UpdateStatus(ctx, f.bob, f.t, "shipped")
	if authz.KindOf(err) != authz.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	// an outsider gets not-found before validation runs
	_, err = svc.UpdateStatus(ctx, f.carol, f.t, "shipped")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for outsider, got %v", err)
	}
}

func TestTaskService_DeveloperCannotDelete(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.b, f.tasks)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := svc.Delete(ctx, f.bob, f.t); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if len(f.tasks.deleted) != 0 {
		t.Error("denied delete must not touch the store")
	}
	if f.activity.count() != 0 {
		t.Error("denied delete must not be logged as activity")
	}

	if err := svc.Delete(ctx, f.alice, f.t); err != nil {
		t.Fatalf("expected admin delete to succeed, got %v", err)
	}
	if len(f.tasks.deleted) != 1 {
		t.Error("expected task to be deleted")
	}
}

func TestTaskService_CreateWithAssigneeNeedsAssign(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.b, f.tasks)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	input := CreateTaskInput{ProjectID: f.p, Title: "New", AssigneeID: testutil.StrPtr(f.alice)}
	if _, err := svc.Create(ctx, f.bob, input); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected developer assigning on create to be forbidden, got %v", err)
	}

	input.AssigneeID = nil
	task, err := svc.Create(ctx, f.bob, input)
	if err != nil {
		t.Fatalf("expected developer to create an unassigned task, got %v", err)
	}
	if task.ReporterID == nil || *task.ReporterID != f.bob {
		t.Error("expected creator to be recorded as reporter")
	}
	if task.Status != types.StatusTodo || task.Priority != types.PriorityMedium {
		t.Errorf("unexpected defaults: %s/%s", task.Status, task.Priority)
	}
}

func TestTaskService_AssignRequiresWorkspaceMember(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.b, f.tasks)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := svc.Assign(ctx, f.alice, f.t, testutil.StrPtr(f.carol)); !errors.Is(err, ErrAssigneeNotMember) {
		t.Errorf("expected ErrAssigneeNotMember, got %v", err)
	}
	task, err := svc.Assign(ctx, f.alice, f.t, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.AssigneeID != nil {
		t.Error("expected assignee to be cleared")
	}
}

func TestTaskService_RoleRevocationIsImmediate(t *testing.T) {
	f := newFixture()
	svc := NewTaskService(f.b, f.tasks)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := svc.GetByID(ctx, f.bob, f.t); err != nil {
		t.Fatalf("expected member read to succeed, got %v", err)
	}
	f.store.RemoveMember(f.bobMem)
	if _, err := svc.GetByID(ctx, f.bob, f.t); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after removal, got %v", err)
	}
}

func TestExtractMentions(t *testing.T) {
	id := "3f2b8a9e-1c4d-4e5f-9a6b-7c8d9e0f1a2b"
	content := "ping @[Bob](" + id + ") and again @[Bob](" + id + ") plus @nobody"
	got := ExtractMentions(content)
	if len(got) != 1 || got[0] != id {
		t.Errorf("expected [%s], got %v", id, got)
	}
	if len(ExtractMentions("no mentions")) != 0 {
		t.Error("expected no mentions")
	}
}
