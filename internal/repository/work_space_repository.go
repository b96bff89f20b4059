package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Workspace struct {
	ID          string
	Name        string
	Description *string
	CreatorID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkspaceMember is the only source of a user's role in a workspace.
type WorkspaceMember struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        authz.Role
	Status      string
	JoinedAt    time.Time
	User        *User
}

// InvalidMembership is a stored row whose role is outside the enumeration.
type InvalidMembership struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        string
}

type WorkspaceRepository interface {
	// Create inserts the workspace and its creator membership in one transaction.
	Create(ctx context.Context, workspace *Workspace, creatorRole authz.Role) error
	FindByID(ctx context.Context, id string) (*Workspace, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Workspace, error)
	Update(ctx context.Context, workspace *Workspace) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, member *WorkspaceMember) error
	FindMembers(ctx context.Context, workspaceID string) ([]*WorkspaceMember, error)
	FindMember(ctx context.Context, workspaceID, userID string) (*WorkspaceMember, error)
	FindMemberByID(ctx context.Context, id string) (*WorkspaceMember, error)
	FindMembershipsByUser(ctx context.Context, userID string) ([]*WorkspaceMember, error)
	UpdateMemberRole(ctx context.Context, memberID string, role authz.Role) error
	RemoveMember(ctx context.Context, memberID string) error
	FindInvalidRoles(ctx context.Context) ([]*InvalidMembership, error)
}

type pgWorkspaceRepository struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepository(pool *pgxpool.Pool) WorkspaceRepository {
	return &pgWorkspaceRepository{pool: pool}
}

func (r *pgWorkspaceRepository) Create(ctx context.Context, workspace *Workspace, creatorRole authz.Role) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO workspaces (name, description, creator_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query, workspace.Name, workspace.Description, workspace.CreatorID).
		Scan(&workspace.ID, &workspace.CreatedAt, &workspace.UpdatedAt); err != nil {
		return err
	}

	if workspace.CreatorID != nil {
		memberQuery := `
			INSERT INTO workspace_members (workspace_id, user_id, role)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.Exec(ctx, memberQuery, workspace.ID, *workspace.CreatorID, string(creatorRole)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *pgWorkspaceRepository) FindByID(ctx context.Context, id string) (*Workspace, error) {
	query := `
		SELECT id, name, description, creator_id, created_at, updated_at
		FROM workspaces WHERE id = $1
	`
	ws := &Workspace{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ws.ID, &ws.Name, &ws.Description, &ws.CreatorID, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// FindByIDs only returns the listed workspaces; callers pass the set the user
// is authorized for.
func (r *pgWorkspaceRepository) FindByIDs(ctx context.Context, ids []string) ([]*Workspace, error) {
	if len(ids) == 0 {
		return []*Workspace{}, nil
	}
	query := `
		SELECT id, name, description, creator_id, created_at, updated_at
		FROM workspaces WHERE id = ANY($1::uuid[])
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		ws := &Workspace{}
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.CreatorID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func (r *pgWorkspaceRepository) Update(ctx context.Context, workspace *Workspace) error {
	query := `
		UPDATE workspaces SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, workspace.ID, workspace.Name, workspace.Description).
		Scan(&workspace.UpdatedAt)
}

func (r *pgWorkspaceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM workspaces WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// AddMember keeps a single row per (workspace, user); re-adding updates the role.
func (r *pgWorkspaceRepository) AddMember(ctx context.Context, member *WorkspaceMember) error {
	if member.Status == "" {
		member.Status = "active"
	}
	query := `
		INSERT INTO workspace_members (workspace_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = $3, status = $4
		RETURNING id, joined_at
	`
	return r.pool.QueryRow(ctx, query, member.WorkspaceID, member.UserID, string(member.Role), member.Status).
		Scan(&member.ID, &member.JoinedAt)
}

func (r *pgWorkspaceRepository) FindMembers(ctx context.Context, workspaceID string) ([]*WorkspaceMember, error) {
	query := `
		SELECT wm.id, wm.workspace_id, wm.user_id, wm.role, wm.status, wm.joined_at,
		       u.id, u.external_id, u.email, u.name, u.avatar
		FROM workspace_members wm
		JOIN users u ON wm.user_id = u.id
		WHERE wm.workspace_id = $1
		ORDER BY wm.joined_at
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*WorkspaceMember
	for rows.Next() {
		m := &WorkspaceMember{User: &User{}}
		var role string
		if err := rows.Scan(
			&m.ID, &m.WorkspaceID, &m.UserID, &role, &m.Status, &m.JoinedAt,
			&m.User.ID, &m.User.ExternalID, &m.User.Email, &m.User.Name, &m.User.Avatar,
		); err != nil {
			return nil, err
		}
		if m.Role, err = parseStoredRole(m.ID, role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgWorkspaceRepository) scanMember(row pgx.Row) (*WorkspaceMember, error) {
	m := &WorkspaceMember{}
	var role string
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &role, &m.Status, &m.JoinedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Role, err = parseStoredRole(m.ID, role); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgWorkspaceRepository) FindMember(ctx context.Context, workspaceID, userID string) (*WorkspaceMember, error) {
	query := `
		SELECT id, workspace_id, user_id, role, status, joined_at
		FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`
	return r.scanMember(r.pool.QueryRow(ctx, query, workspaceID, userID))
}

func (r *pgWorkspaceRepository) FindMemberByID(ctx context.Context, id string) (*WorkspaceMember, error) {
	query := `
		SELECT id, workspace_id, user_id, role, status, joined_at
		FROM workspace_members WHERE id = $1
	`
	return r.scanMember(r.pool.QueryRow(ctx, query, id))
}

func (r *pgWorkspaceRepository) FindMembershipsByUser(ctx context.Context, userID string) ([]*WorkspaceMember, error) {
	query := `
		SELECT id, workspace_id, user_id, role, status, joined_at
		FROM workspace_members WHERE user_id = $1
		ORDER BY joined_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*WorkspaceMember
	for rows.Next() {
		m, err := r.scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgWorkspaceRepository) UpdateMemberRole(ctx context.Context, memberID string, role authz.Role) error {
	query := `UPDATE workspace_members SET role = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, memberID, string(role))
	return err
}

func (r *pgWorkspaceRepository) RemoveMember(ctx context.Context, memberID string) error {
	query := `DELETE FROM workspace_members WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, memberID)
	return err
}

func (r *pgWorkspaceRepository) FindInvalidRoles(ctx context.Context) ([]*InvalidMembership, error) {
	valid := make([]string, len(authz.Roles))
	for i, role := range authz.Roles {
		valid[i] = string(role)
	}
	query := `
		SELECT id, workspace_id, user_id, role
		FROM workspace_members WHERE NOT (role = ANY($1::text[]))
	`
	rows, err := r.pool.Query(ctx, query, valid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*InvalidMembership
	for rows.Next() {
		m := &InvalidMembership{}
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// parseStoredRole rejects rows whose role is not in the enumeration instead of
// mapping them to some default.
func parseStoredRole(memberID, role string) (authz.Role, error) {
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return "", fmt.Errorf("workspace member %s: %w", memberID, err)
	}
	return parsed, nil
}
