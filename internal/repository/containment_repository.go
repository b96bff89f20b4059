package repository

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// parentQueries has one single-row lookup per containment hop.
var parentQueries = map[authz.Resource]string{
	authz.ResourceAttachment: `SELECT comment_id::text FROM attachments WHERE id = $1`,
	authz.ResourceComment:    `SELECT task_id::text FROM comments WHERE id = $1`,
	authz.ResourceTask:       `SELECT project_id::text FROM tasks WHERE id = $1`,
	authz.ResourceBug:        `SELECT project_id::text FROM bugs WHERE id = $1`,
	authz.ResourceDocument:   `SELECT project_id::text FROM documents WHERE id = $1`,
	authz.ResourceProject:    `SELECT workspace_id::text FROM projects WHERE id = $1`,
	authz.ResourceMember:     `SELECT workspace_id::text FROM workspace_members WHERE id = $1`,
}

var participantQueries = map[authz.Resource]string{
	authz.ResourceTask: `SELECT assignee_id::text, COALESCE(reporter_id::text, '') FROM tasks WHERE id = $1`,
	authz.ResourceBug:  `SELECT assignee_id::text, COALESCE(reporter_id::text, '') FROM bugs WHERE id = $1`,
}

// ContainmentStore is the PostgreSQL implementation of authz.Store. It issues
// plain reads and caches nothing.
type ContainmentStore struct {
	pool       *pgxpool.Pool
	workspaces WorkspaceRepository
}

var _ authz.Store = (*ContainmentStore)(nil)

func NewContainmentStore(pool *pgxpool.Pool, workspaces WorkspaceRepository) *ContainmentStore {
	return &ContainmentStore{pool: pool, workspaces: workspaces}
}

// isUUID keeps malformed ids away from uuid columns, where Postgres would
// reject the query instead of finding nothing.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *ContainmentStore) ParentID(ctx context.Context, resource authz.Resource, id string) (string, bool, error) {
	query, ok := parentQueries[resource]
	if !ok {
		return "", false, fmt.Errorf("%w: %s has no parent", authz.ErrInvalidResource, resource)
	}
	if !isUUID(id) {
		return "", false, nil
	}
	var parentID string
	err := s.pool.QueryRow(ctx, query, id).Scan(&parentID)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return parentID, true, nil
}

func (s *ContainmentStore) Membership(ctx context.Context, userID, workspaceID string) (authz.Role, bool, error) {
	if !isUUID(userID) || !isUUID(workspaceID) {
		return "", false, nil
	}
	m, err := s.workspaces.FindMember(ctx, workspaceID, userID)
	if err != nil {
		return "", false, err
	}
	if m == nil || m.Status != "active" {
		return "", false, nil
	}
	return m.Role, true, nil
}

func (s *ContainmentStore) Memberships(ctx context.Context, userID string) ([]authz.Membership, error) {
	rows, err := s.workspaces.FindMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]authz.Membership, 0, len(rows))
	for _, m := range rows {
		if m.Status != "active" {
			continue
		}
		out = append(out, authz.Membership{ID: m.ID, WorkspaceID: m.WorkspaceID, UserID: m.UserID, Role: m.Role})
	}
	return out, nil
}

func (s *ContainmentStore) Participants(ctx context.Context, resource authz.Resource, id string) (authz.Participants, bool, error) {
	query, ok := participantQueries[resource]
	if !ok || !isUUID(id) {
		return authz.Participants{}, false, nil
	}
	var p authz.Participants
	err := s.pool.QueryRow(ctx, query, id).Scan(&p.AssigneeID, &p.ReporterID)
	if err == pgx.ErrNoRows {
		return authz.Participants{}, false, nil
	}
	if err != nil {
		return authz.Participants{}, false, err
	}
	return p, true, nil
}

func (s *ContainmentStore) MemberUserID(ctx context.Context, membershipID string) (string, bool, error) {
	if !isUUID(membershipID) {
		return "", false, nil
	}
	m, err := s.workspaces.FindMemberByID(ctx, membershipID)
	if err != nil {
		return "", false, err
	}
	if m == nil {
		return "", false, nil
	}
	return m.UserID, true, nil
}
