package service

import (
	"context"
	"sync"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
	"go.uber.org/zap"
)

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []*repository.Activity
}

func (r *fakeActivityRepo) Create(ctx context.Context, a *repository.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = testutil.NewID()
	r.entries = append(r.entries, a)
	return nil
}

func (r *fakeActivityRepo) FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*repository.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Activity
	for _, a := range r.entries {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) FindByUser(ctx context.Context, userID string, limit int) ([]*repository.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Activity
	for _, a := range r.entries {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeActivityRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// fakeTaskRepo holds rows keyed by the same ids the MemStore uses for
// containment.
type fakeTaskRepo struct {
	mu      sync.Mutex
	tasks   map[string]*repository.Task
	deleted []string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: map[string]*repository.Task{}}
}

func (r *fakeTaskRepo) put(t *repository.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
}

func (r *fakeTaskRepo) Create(ctx context.Context, t *repository.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = testutil.NewID()
	r.tasks[t.ID] = t
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id string) (*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, t *repository.Task) error {
	r.put(t)
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeTaskRepo) FindByProjectID(ctx context.Context, projectID string) ([]*repository.Task, error) {
	return r.FindWithFilters(ctx, &repository.TaskFilters{ProjectIDs: []string{projectID}})
}

func (r *fakeTaskRepo) FindByWorkspaceIDs(ctx context.Context, workspaceIDs []string) ([]*repository.Task, error) {
	return nil, nil
}

func (r *fakeTaskRepo) FindWithFilters(ctx context.Context, f *repository.TaskFilters) ([]*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Task
	for _, t := range r.tasks {
		for _, p := range f.ProjectIDs {
			if t.ProjectID == p {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, taskID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[taskID].Status = status
	return nil
}

func (r *fakeTaskRepo) Assign(ctx context.Context, taskID string, assigneeID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[taskID].AssigneeID = assigneeID
	return nil
}

// fixture mirrors the workspace used across the authz tests: Alice admin, Bob
// developer and assignee of T, Carol only in another workspace.
type fixture struct {
	store             *testutil.MemStore
	engine            *authz.Engine
	activity          *fakeActivityRepo
	tasks             *fakeTaskRepo
	b                 base
	alice, bob, carol string
	w, w2, p, t       string
	aliceMem, bobMem  string
}

func newFixture() *fixture {
	f := &fixture{store: testutil.NewMemStore(), activity: &fakeActivityRepo{}, tasks: newFakeTaskRepo()}
	f.alice, f.bob, f.carol = testutil.NewID(), testutil.NewID(), testutil.NewID()
	f.w, f.w2 = f.store.AddWorkspace(), f.store.AddWorkspace()
	f.aliceMem = f.store.AddMember(f.w, f.alice, authz.RoleWorkspaceAdmin)
	f.bobMem = f.store.AddMember(f.w, f.bob, authz.RoleDeveloper)
	f.store.AddMember(f.w2, f.carol, authz.RoleWorkspaceCreator)
	f.p = f.store.AddProject(f.w)
	f.t = f.store.AddTask(f.p, testutil.StrPtr(f.bob), f.alice)
	f.tasks.put(&repository.Task{ID: f.t, ProjectID: f.p, Title: "T", Status: "todo", Priority: "medium",
		AssigneeID: testutil.StrPtr(f.bob), ReporterID: testutil.StrPtr(f.alice)})

	f.engine = authz.NewEngine(f.store, nil)
	f.b = base{
		guard:    NewGuard(f.engine),
		activity: NewActivityService(f.activity, f.engine, zap.NewNop()),
		log:      zap.NewNop(),
	}
	return f
}
