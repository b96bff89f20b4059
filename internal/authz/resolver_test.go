package authz_test

import (
	"errors"
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
)

func TestResolver_ContainmentChain(t *testing.T) {
	store := testutil.NewMemStore()
	user := testutil.NewID()
	w1 := store.AddWorkspace()
	store.AddMember(w1, user, authz.RoleTeamLead)
	p1 := store.AddProject(w1)
	t1 := store.AddTask(p1, nil, user)
	c1 := store.AddComment(t1)
	a1 := store.AddAttachment(c1)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	r := authz.NewResolver(store)

	want, ok, err := r.ResolveWorkspaceRole(ctx, user, authz.ResourceWorkspace, w1)
	if err != nil || !ok {
		t.Fatalf("workspace role: %v %v", ok, err)
	}

	for _, tc := range []struct {
		res authz.Resource
		id  string
	}{
		{authz.ResourceProject, p1},
		{authz.ResourceTask, t1},
		{authz.ResourceComment, c1},
		{authz.ResourceAttachment, a1},
	} {
		got, ok, err := r.ResolveWorkspaceRole(ctx, user, tc.res, tc.id)
		if err != nil {
			t.Fatalf("%s: %v", tc.res, err)
		}
		if !ok || got != want {
			t.Errorf("%s resolved to %q (%v), want %q", tc.res, got, ok, want)
		}
	}
}

func TestResolver_HopsPerType(t *testing.T) {
	store := testutil.NewMemStore()
	user := testutil.NewID()
	w := store.AddWorkspace()
	store.AddMember(w, user, authz.RoleDeveloper)
	p := store.AddProject(w)
	a := store.AddAttachment(store.AddComment(store.AddTask(p, nil, user)))

	ctx, cancel := testutil.TestContext()
	defer cancel()
	r := authz.NewResolver(store)

	before := store.Calls()
	if _, _, err := r.ResolveWorkspaceRole(ctx, user, authz.ResourceAttachment, a); err != nil {
		t.Fatal(err)
	}
	// four parent hops plus one membership lookup
	if got := store.Calls() - before; got != 5 {
		t.Errorf("expected 5 store reads, got %d", got)
	}

	before = store.Calls()
	if _, _, err := r.ResolveWorkspaceRole(ctx, user, authz.ResourceWorkspace, w); err != nil {
		t.Fatal(err)
	}
	if got := store.Calls() - before; got != 1 {
		t.Errorf("expected 1 store read for a workspace, got %d", got)
	}
}

func TestResolver_MissingHopAndMissingMembershipLookAlike(t *testing.T) {
	store := testutil.NewMemStore()
	member, outsider := testutil.NewID(), testutil.NewID()
	w := store.AddWorkspace()
	store.AddMember(w, member, authz.RoleDeveloper)
	task := store.AddTask(store.AddProject(w), nil, member)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	r := authz.NewResolver(store)

	role1, ok1, err1 := r.ResolveWorkspaceRole(ctx, member, authz.ResourceTask, testutil.NewID())
	role2, ok2, err2 := r.ResolveWorkspaceRole(ctx, outsider, authz.ResourceTask, task)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	if ok1 || ok2 || role1 != "" || role2 != "" {
		t.Errorf("expected both lookups to yield no role, got (%q,%v) and (%q,%v)", role1, ok1, role2, ok2)
	}
}

func TestResolver_WorkspaceOf(t *testing.T) {
	store := testutil.NewMemStore()
	w := store.AddWorkspace()
	doc := store.AddDocument(store.AddProject(w))
	mem := store.AddMember(w, testutil.NewID(), authz.RoleStakeholder)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	r := authz.NewResolver(store)

	for _, tc := range []struct {
		res authz.Resource
		id  string
	}{
		{authz.ResourceDocument, doc},
		{authz.ResourceMember, mem},
		{authz.ResourceWorkspace, w},
	} {
		got, ok, err := r.WorkspaceOf(ctx, tc.res, tc.id)
		if err != nil || !ok || got != w {
			t.Errorf("WorkspaceOf(%s) = %q %v %v", tc.res, got, ok, err)
		}
	}

	if _, ok, err := r.WorkspaceOf(ctx, authz.ResourceDocument, ""); ok || err != nil {
		t.Errorf("empty id should not resolve: %v %v", ok, err)
	}
	if _, _, err := r.WorkspaceOf(ctx, authz.Resource("SPRINT"), testutil.NewID()); !errors.Is(err, authz.ErrInvalidResource) {
		t.Errorf("expected ErrInvalidResource, got %v", err)
	}
}
