package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
)

// ============================================
// In-memory repositories
// ============================================
//
// The repositories share one MemStore, so a membership written through
// MemWorkspaceRepo is what the engine reads on the next check.

// MemActivityRepo records activity entries in order.
type MemActivityRepo struct {
	mu      sync.Mutex
	entries []*repository.Activity
}

func (r *MemActivityRepo) Create(ctx context.Context, a *repository.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = NewID()
	a.CreatedAt = time.Now()
	r.entries = append(r.entries, a)
	return nil
}

func (r *MemActivityRepo) FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*repository.Activity, error) {
	return r.filter(func(a *repository.Activity) bool { return a.EntityType == entityType && a.EntityID == entityID }), nil
}

func (r *MemActivityRepo) FindByUser(ctx context.Context, userID string, limit int) ([]*repository.Activity, error) {
	return r.filter(func(a *repository.Activity) bool { return a.UserID == userID }), nil
}

// Entries returns a copy of everything recorded so far.
func (r *MemActivityRepo) Entries() []*repository.Activity {
	return r.filter(func(*repository.Activity) bool { return true })
}

func (r *MemActivityRepo) filter(keep func(*repository.Activity) bool) []*repository.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*repository.Activity{}
	for _, a := range r.entries {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// MemUserRepo keys users by id.
type MemUserRepo struct {
	mu    sync.Mutex
	users map[string]*repository.User
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: map[string]*repository.User{}}
}

// Put stores a user under its id.
func (r *MemUserRepo) Put(u *repository.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *MemUserRepo) Upsert(ctx context.Context, u *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.ExternalID == u.ExternalID {
			u.ID = existing.ID
			break
		}
	}
	if u.ID == "" {
		u.ID = NewID()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *MemUserRepo) find(match func(*repository.User) bool) *repository.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r *MemUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	return r.find(func(u *repository.User) bool { return u.ID == id }), nil
}

func (r *MemUserRepo) FindByExternalID(ctx context.Context, externalID string) (*repository.User, error) {
	return r.find(func(u *repository.User) bool { return u.ExternalID == externalID }), nil
}

func (r *MemUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.find(func(u *repository.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *MemUserRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.ExternalID == externalID {
			delete(r.users, id)
		}
	}
	return nil
}

// MemWorkspaceRepo keeps workspace rows locally and memberships in the
// MemStore.
type MemWorkspaceRepo struct {
	Store *MemStore

	mu         sync.Mutex
	workspaces map[string]*repository.Workspace
}

func NewMemWorkspaceRepo(store *MemStore) *MemWorkspaceRepo {
	return &MemWorkspaceRepo{Store: store, workspaces: map[string]*repository.Workspace{}}
}

// Put stores a workspace row for an id the MemStore already knows.
func (r *MemWorkspaceRepo) Put(w *repository.Workspace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspaces[w.ID] = w
}

func (r *MemWorkspaceRepo) Create(ctx context.Context, w *repository.Workspace, creatorRole authz.Role) error {
	w.ID = r.Store.AddWorkspace()
	r.Put(w)
	if w.CreatorID != nil {
		r.Store.AddMember(w.ID, *w.CreatorID, creatorRole)
	}
	return nil
}

func (r *MemWorkspaceRepo) FindByID(ctx context.Context, id string) (*repository.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workspaces[id], nil
}

func (r *MemWorkspaceRepo) FindByIDs(ctx context.Context, ids []string) ([]*repository.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*repository.Workspace{}
	for _, id := range ids {
		if w, ok := r.workspaces[id]; ok {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemWorkspaceRepo) Update(ctx context.Context, w *repository.Workspace) error {
	r.Put(w)
	return nil
}

func (r *MemWorkspaceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workspaces, id)
	return nil
}

func (r *MemWorkspaceRepo) AddMember(ctx context.Context, m *repository.WorkspaceMember) error {
	m.ID = r.Store.AddMember(m.WorkspaceID, m.UserID, m.Role)
	return nil
}

func toMember(m authz.Membership) *repository.WorkspaceMember {
	return &repository.WorkspaceMember{ID: m.ID, WorkspaceID: m.WorkspaceID, UserID: m.UserID, Role: m.Role}
}

func (r *MemWorkspaceRepo) FindMembers(ctx context.Context, workspaceID string) ([]*repository.WorkspaceMember, error) {
	out := []*repository.WorkspaceMember{}
	for _, m := range r.Store.MembersOf(workspaceID) {
		out = append(out, toMember(m))
	}
	return out, nil
}

func (r *MemWorkspaceRepo) FindMember(ctx context.Context, workspaceID, userID string) (*repository.WorkspaceMember, error) {
	for _, m := range r.Store.MembersOf(workspaceID) {
		if m.UserID == userID {
			return toMember(m), nil
		}
	}
	return nil, nil
}

func (r *MemWorkspaceRepo) FindMemberByID(ctx context.Context, id string) (*repository.WorkspaceMember, error) {
	m, ok := r.Store.Member(id)
	if !ok {
		return nil, nil
	}
	return toMember(m), nil
}

func (r *MemWorkspaceRepo) FindMembershipsByUser(ctx context.Context, userID string) ([]*repository.WorkspaceMember, error) {
	ms, err := r.Store.Memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []*repository.WorkspaceMember{}
	for _, m := range ms {
		out = append(out, toMember(m))
	}
	return out, nil
}

func (r *MemWorkspaceRepo) UpdateMemberRole(ctx context.Context, memberID string, role authz.Role) error {
	r.Store.SetRole(memberID, role)
	return nil
}

func (r *MemWorkspaceRepo) RemoveMember(ctx context.Context, memberID string) error {
	r.Store.RemoveMember(memberID)
	return nil
}

func (r *MemWorkspaceRepo) FindInvalidRoles(ctx context.Context) ([]*repository.InvalidMembership, error) {
	return []*repository.InvalidMembership{}, nil
}

// MemTaskRepo stores task rows under the ids the MemStore uses for
// containment.
type MemTaskRepo struct {
	Store *MemStore

	mu    sync.Mutex
	tasks map[string]*repository.Task
}

func NewMemTaskRepo(store *MemStore) *MemTaskRepo {
	return &MemTaskRepo{Store: store, tasks: map[string]*repository.Task{}}
}

// Put stores a copy of the task.
func (r *MemTaskRepo) Put(t *repository.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tasks[t.ID] = &cp
}

func (r *MemTaskRepo) Create(ctx context.Context, t *repository.Task) error {
	reporter := ""
	if t.ReporterID != nil {
		reporter = *t.ReporterID
	}
	t.ID = r.Store.AddTask(t.ProjectID, t.AssigneeID, reporter)
	r.Put(t)
	return nil
}

func (r *MemTaskRepo) FindByID(ctx context.Context, id string) (*repository.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *MemTaskRepo) Update(ctx context.Context, t *repository.Task) error {
	r.Put(t)
	return nil
}

func (r *MemTaskRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func (r *MemTaskRepo) FindByProjectID(ctx context.Context, projectID string) ([]*repository.Task, error) {
	return r.FindWithFilters(ctx, &repository.TaskFilters{ProjectIDs: []string{projectID}})
}

func (r *MemTaskRepo) FindByWorkspaceIDs(ctx context.Context, workspaceIDs []string) ([]*repository.Task, error) {
	allowed := map[string]bool{}
	for _, id := range workspaceIDs {
		allowed[id] = true
	}
	return r.collect(func(t *repository.Task) bool {
		return allowed[r.Store.ParentOf(authz.ResourceProject, t.ProjectID)]
	}), nil
}

func (r *MemTaskRepo) FindWithFilters(ctx context.Context, f *repository.TaskFilters) ([]*repository.Task, error) {
	projects := map[string]bool{}
	for _, id := range f.ProjectIDs {
		projects[id] = true
	}
	statuses := map[string]bool{}
	for _, s := range f.Status {
		statuses[s] = true
	}
	return r.collect(func(t *repository.Task) bool {
		return projects[t.ProjectID] && (len(statuses) == 0 || statuses[t.Status])
	}), nil
}

func (r *MemTaskRepo) collect(keep func(*repository.Task) bool) []*repository.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*repository.Task{}
	for _, t := range r.tasks {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (r *MemTaskRepo) UpdateStatus(ctx context.Context, taskID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[taskID]; ok {
		t.Status = status
	}
	return nil
}

func (r *MemTaskRepo) Assign(ctx context.Context, taskID string, assigneeID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[taskID]; ok {
		t.AssigneeID = assigneeID
	}
	return nil
}

var (
	_ repository.ActivityRepository  = (*MemActivityRepo)(nil)
	_ repository.UserRepository      = (*MemUserRepo)(nil)
	_ repository.WorkspaceRepository = (*MemWorkspaceRepo)(nil)
	_ repository.TaskRepository      = (*MemTaskRepo)(nil)
)
