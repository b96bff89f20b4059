package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Bug struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"projectId" db:"project_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Severity    string    `json:"severity" db:"severity"`
	Status      string    `json:"status" db:"status"`
	AssigneeID  *string   `json:"assigneeId,omitempty" db:"assignee_id"`
	ReporterID  *string   `json:"reporterId,omitempty" db:"reporter_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type BugRepository interface {
	Create(ctx context.Context, bug *Bug) error
	FindByID(ctx context.Context, id string) (*Bug, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*Bug, error)
	FindByWorkspaceIDs(ctx context.Context, workspaceIDs []string) ([]*Bug, error)
	Update(ctx context.Context, bug *Bug) error
	UpdateStatus(ctx context.Context, bugID, status string) error
	Assign(ctx context.Context, bugID string, assigneeID *string) error
	Delete(ctx context.Context, id string) error
}

type bugRepository struct {
	db *sqlx.DB
}

func NewBugRepository(db *sqlx.DB) BugRepository {
	return &bugRepository{db: db}
}

const bugColumns = `b.id, b.project_id, b.title, b.description, b.severity, b.status,
	b.assignee_id, b.reporter_id, b.created_at, b.updated_at`

func (r *bugRepository) Create(ctx context.Context, bug *Bug) error {
	query := `
		INSERT INTO bugs (project_id, title, description, severity, status, assignee_id, reporter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		bug.ProjectID, bug.Title, bug.Description, bug.Severity, bug.Status, bug.AssigneeID, bug.ReporterID,
	).Scan(&bug.ID, &bug.CreatedAt, &bug.UpdatedAt)
}

func (r *bugRepository) FindByID(ctx context.Context, id string) (*Bug, error) {
	bug := &Bug{}
	err := r.db.GetContext(ctx, bug, `SELECT `+bugColumns+` FROM bugs b WHERE b.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bug, nil
}

func (r *bugRepository) FindByProjectID(ctx context.Context, projectID string) ([]*Bug, error) {
	var bugs []*Bug
	err := r.db.SelectContext(ctx, &bugs,
		`SELECT `+bugColumns+` FROM bugs b WHERE b.project_id = $1 ORDER BY b.created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	return bugs, nil
}

func (r *bugRepository) FindByWorkspaceIDs(ctx context.Context, workspaceIDs []string) ([]*Bug, error) {
	if len(workspaceIDs) == 0 {
		return []*Bug{}, nil
	}
	query := `SELECT ` + bugColumns + `
		FROM bugs b
		JOIN projects p ON p.id = b.project_id
		WHERE p.workspace_id = ANY($1::uuid[])
		ORDER BY b.created_at DESC`

	var bugs []*Bug
	if err := r.db.SelectContext(ctx, &bugs, query, pq.Array(workspaceIDs)); err != nil {
		return nil, err
	}
	return bugs, nil
}

func (r *bugRepository) Update(ctx context.Context, bug *Bug) error {
	query := `
		UPDATE bugs SET title = $2, description = $3, severity = $4, status = $5,
			assignee_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		bug.ID, bug.Title, bug.Description, bug.Severity, bug.Status, bug.AssigneeID,
	).Scan(&bug.UpdatedAt)
}

func (r *bugRepository) UpdateStatus(ctx context.Context, bugID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bugs SET status = $2, updated_at = NOW() WHERE id = $1`, bugID, status)
	return err
}

func (r *bugRepository) Assign(ctx context.Context, bugID string, assigneeID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bugs SET assignee_id = $2, updated_at = NOW() WHERE id = $1`, bugID, assigneeID)
	return err
}

func (r *bugRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bugs WHERE id = $1`, id)
	return err
}
