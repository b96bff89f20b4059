package tools

import (
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/service"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
	"github.com/Marga-Ghale/ora-authz/internal/types"
)

// liveWorld runs the real catalog against in-memory repositories that share
// the world's MemStore.
type liveWorld struct {
	*world
	workspaces *testutil.MemWorkspaceRepo
	tasks      *testutil.MemTaskRepo
	activity   *testutil.MemActivityRepo
	users      *testutil.MemUserRepo
	gateway    *Gateway
	other      string // task in w2
}

func newLiveWorld(t *testing.T) *liveWorld {
	t.Helper()
	w := newWorld()
	lw := &liveWorld{
		world:      w,
		workspaces: testutil.NewMemWorkspaceRepo(w.store),
		tasks:      testutil.NewMemTaskRepo(w.store),
		activity:   &testutil.MemActivityRepo{},
		users:      testutil.NewMemUserRepo(),
	}
	lw.workspaces.Put(&repository.Workspace{ID: w.w, Name: "Acme"})
	lw.workspaces.Put(&repository.Workspace{ID: w.w2, Name: "Globex"})
	lw.tasks.Put(&repository.Task{ID: w.t, ProjectID: w.p, Title: "T", Status: types.StatusTodo, Priority: types.PriorityMedium,
		AssigneeID: testutil.StrPtr(w.bob), ReporterID: testutil.StrPtr(w.alice)})

	other := &repository.Task{ProjectID: w.p2, Title: "Other", Status: types.StatusTodo, Priority: types.PriorityLow, ReporterID: testutil.StrPtr(w.carol)}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := lw.tasks.Create(ctx, other); err != nil {
		t.Fatalf("create task: %v", err)
	}
	lw.other = other.ID

	repos := &repository.Repositories{
		UserRepo:      lw.users,
		WorkspaceRepo: lw.workspaces,
		TaskRepo:      lw.tasks,
		ActivityRepo:  lw.activity,
	}
	services := service.NewServices(&service.ServiceDeps{Repos: repos, Engine: w.engine})
	lw.gateway = newGateway(t, w, Catalog(Deps{Services: services, Repos: repos})...)
	return lw
}

func taskIDs(t *testing.T, data interface{}) []string {
	t.Helper()
	tasks, ok := data.([]*repository.Task)
	if !ok {
		t.Fatalf("expected []*repository.Task, got %T", data)
	}
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func TestCatalogRun_AssigneeUpdatesStatus(t *testing.T) {
	lw := newLiveWorld(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res := lw.gateway.Dispatch(ctx, "updateTaskStatus", Args{"taskId": lw.t, "status": types.StatusDone}, lw.bob)
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", res.Status, res.Message)
	}
	task, ok := res.Data.(*repository.Task)
	if !ok || task.Status != types.StatusDone {
		t.Fatalf("expected the updated task, got %#v", res.Data)
	}
	stored, _ := lw.tasks.FindByID(ctx, lw.t)
	if stored.Status != types.StatusDone {
		t.Errorf("expected stored status done, got %s", stored.Status)
	}

	entries := lw.activity.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(entries))
	}
	if e := entries[0]; e.UserID != lw.bob || e.EntityID != lw.t || e.EntityType != string(authz.ResourceTask) || e.Action != "updated" {
		t.Errorf("unexpected activity %+v", e)
	}

	// an invalid status is reported as input, after authorization
	res = lw.gateway.Dispatch(ctx, "updateTaskStatus", Args{"taskId": lw.t, "status": "shipped"}, lw.bob)
	if res.Status != StatusInputInvalid {
		t.Errorf("expected input_invalid, got %s", res.Status)
	}
	if len(lw.activity.Entries()) != 1 {
		t.Error("failed update must not be logged")
	}
}

func TestCatalogRun_ListTasksScopedToMemberships(t *testing.T) {
	lw := newLiveWorld(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res := lw.gateway.Dispatch(ctx, "listTasks", Args{}, lw.bob)
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", res.Status)
	}
	if ids := taskIDs(t, res.Data); len(ids) != 1 || ids[0] != lw.t {
		t.Errorf("bob should see only T, got %v", ids)
	}

	res = lw.gateway.Dispatch(ctx, "listTasks", Args{}, lw.carol)
	if ids := taskIDs(t, res.Data); len(ids) != 1 || ids[0] != lw.other {
		t.Errorf("carol should see only her workspace's task, got %v", ids)
	}

	res = lw.gateway.Dispatch(ctx, "listTasks", Args{"projectId": lw.p}, lw.bob)
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", res.Status)
	}
	if ids := taskIDs(t, res.Data); len(ids) != 1 || ids[0] != lw.t {
		t.Errorf("project listing should return T, got %v", ids)
	}

	res = lw.gateway.Dispatch(ctx, "listTasks", Args{"projectId": lw.p}, lw.carol)
	if res.Status != StatusForbidden || res.Data != nil {
		t.Errorf("cross-tenant project listing: expected forbidden without data, got %s %v", res.Status, res.Data)
	}
}

func TestCatalogRun_ListWorkspaces(t *testing.T) {
	lw := newLiveWorld(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res := lw.gateway.Dispatch(ctx, "listWorkspaces", nil, lw.bob)
	workspaces, ok := res.Data.([]*repository.Workspace)
	if res.Status != StatusSuccess || !ok {
		t.Fatalf("expected workspaces, got %s %T", res.Status, res.Data)
	}
	if len(workspaces) != 1 || workspaces[0].Name != "Acme" {
		t.Errorf("bob should see only Acme, got %+v", workspaces)
	}
}

func TestCatalogRun_RemoveMemberEndToEnd(t *testing.T) {
	lw := newLiveWorld(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res := lw.gateway.Dispatch(ctx, "removeMember", Args{"memberId": lw.bobMem}, lw.alice)
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", res.Status, res.Message)
	}
	if got, _ := res.Data.(map[string]string); got["removed"] != lw.bobMem {
		t.Errorf("expected removed id, got %v", res.Data)
	}
	if _, ok := lw.store.Member(lw.bobMem); ok {
		t.Error("membership should be gone")
	}

	entries := lw.activity.Entries()
	if len(entries) != 1 || entries[0].Action != "removed" || entries[0].Changes["workspaceId"] != lw.w {
		t.Errorf("expected a removed entry for W, got %+v", entries)
	}

	// the next check re-reads membership
	res = lw.gateway.Dispatch(ctx, "updateTaskStatus", Args{"taskId": lw.t, "status": types.StatusDone}, lw.bob)
	if res.Status != StatusForbidden {
		t.Errorf("removed member: expected forbidden, got %s", res.Status)
	}
}

func TestCatalogRun_InviteMember(t *testing.T) {
	lw := newLiveWorld(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	dana := testutil.NewID()
	lw.users.Put(&repository.User{ID: dana, ExternalID: "idp|dana", Email: "dana@example.com", Name: "Dana"})

	res := lw.gateway.Dispatch(ctx, "inviteMember", Args{"workspaceId": lw.w, "email": "dana@example.com", "role": "team_lead"}, lw.alice)
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", res.Status, res.Message)
	}
	if role, ok, _ := lw.store.Membership(ctx, dana, lw.w); !ok || role != authz.RoleTeamLead {
		t.Errorf("expected dana to be TEAM_LEAD in W, got %s %v", role, ok)
	}
}
