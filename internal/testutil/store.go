// Package testutil provides an in-memory authz.Store for tests.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/google/uuid"
)

// MemStore keeps the containment graph and memberships in maps.
type MemStore struct {
	mu           sync.RWMutex
	parents      map[authz.Resource]map[string]string
	participants map[authz.Resource]map[string]authz.Participants
	members      map[string]authz.Membership // by membership id

	// Err, when set, is returned by every read.
	Err   error
	calls atomic.Int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		parents:      map[authz.Resource]map[string]string{},
		participants: map[authz.Resource]map[string]authz.Participants{},
		members:      map[string]authz.Membership{},
	}
}

// NewID returns a fresh uuid string.
func NewID() string { return uuid.NewString() }

// Calls reports how many store reads have been issued.
func (s *MemStore) Calls() int64 { return s.calls.Load() }

func (s *MemStore) setParent(resource authz.Resource, id, parentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parents[resource] == nil {
		s.parents[resource] = map[string]string{}
	}
	s.parents[resource][id] = parentID
}

func (s *MemStore) AddWorkspace() string {
	return NewID()
}

func (s *MemStore) AddProject(workspaceID string) string {
	id := NewID()
	s.setParent(authz.ResourceProject, id, workspaceID)
	return id
}

func (s *MemStore) addWorkItem(resource authz.Resource, projectID string, assigneeID *string, reporterID string) string {
	id := NewID()
	s.setParent(resource, id, projectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.participants[resource] == nil {
		s.participants[resource] = map[string]authz.Participants{}
	}
	s.participants[resource][id] = authz.Participants{AssigneeID: assigneeID, ReporterID: reporterID}
	return id
}

func (s *MemStore) AddTask(projectID string, assigneeID *string, reporterID string) string {
	return s.addWorkItem(authz.ResourceTask, projectID, assigneeID, reporterID)
}

func (s *MemStore) AddBug(projectID string, assigneeID *string, reporterID string) string {
	return s.addWorkItem(authz.ResourceBug, projectID, assigneeID, reporterID)
}

func (s *MemStore) AddDocument(projectID string) string {
	id := NewID()
	s.setParent(authz.ResourceDocument, id, projectID)
	return id
}

func (s *MemStore) AddComment(taskID string) string {
	id := NewID()
	s.setParent(authz.ResourceComment, id, taskID)
	return id
}

func (s *MemStore) AddAttachment(commentID string) string {
	id := NewID()
	s.setParent(authz.ResourceAttachment, id, commentID)
	return id
}

// AddMember creates a membership row and returns its id.
func (s *MemStore) AddMember(workspaceID, userID string, role authz.Role) string {
	id := NewID()
	s.setParent(authz.ResourceMember, id, workspaceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for mid, m := range s.members {
		if m.WorkspaceID == workspaceID && m.UserID == userID {
			delete(s.members, mid)
		}
	}
	s.members[id] = authz.Membership{ID: id, WorkspaceID: workspaceID, UserID: userID, Role: role}
	return id
}

func (s *MemStore) RemoveMember(membershipID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, membershipID)
	delete(s.parents[authz.ResourceMember], membershipID)
}

// SetRole changes the role on an existing membership row.
func (s *MemStore) SetRole(membershipID string, role authz.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[membershipID]; ok {
		m.Role = role
		s.members[membershipID] = m
	}
}

// Member returns a membership row without counting it as a store read.
func (s *MemStore) Member(membershipID string) (authz.Membership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[membershipID]
	return m, ok
}

// MembersOf lists the membership rows of a workspace.
func (s *MemStore) MembersOf(workspaceID string) []authz.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []authz.Membership
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID {
			out = append(out, m)
		}
	}
	return out
}

// ParentOf reads the containment graph without counting a store read.
func (s *MemStore) ParentOf(resource authz.Resource, id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parents[resource][id]
}

func (s *MemStore) ParentID(ctx context.Context, resource authz.Resource, id string) (string, bool, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return "", false, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	parentID, ok := s.parents[resource][id]
	return parentID, ok, nil
}

func (s *MemStore) Membership(ctx context.Context, userID, workspaceID string) (authz.Role, bool, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return "", false, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.UserID == userID && m.WorkspaceID == workspaceID {
			return m.Role, true, nil
		}
	}
	return "", false, nil
}

func (s *MemStore) Memberships(ctx context.Context, userID string) ([]authz.Membership, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []authz.Membership
	for _, m := range s.members {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemStore) Participants(ctx context.Context, resource authz.Resource, id string) (authz.Participants, bool, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return authz.Participants{}, false, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[resource][id]
	return p, ok, nil
}

func (s *MemStore) MemberUserID(ctx context.Context, membershipID string) (string, bool, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return "", false, s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[membershipID]
	return m.UserID, ok, nil
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
