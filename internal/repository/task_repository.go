package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Task struct {
	ID          string         `json:"id" db:"id"`
	ProjectID   string         `json:"projectId" db:"project_id"`
	Title       string         `json:"title" db:"title"`
	Description *string        `json:"description,omitempty" db:"description"`
	Status      string         `json:"status" db:"status"`
	Priority    string         `json:"priority" db:"priority"`
	AssigneeID  *string        `json:"assigneeId,omitempty" db:"assignee_id"`
	ReporterID  *string        `json:"reporterId,omitempty" db:"reporter_id"`
	Labels      pq.StringArray `json:"labels" db:"labels"`
	DueDate     *time.Time     `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

// TaskFilters narrows a listing; ProjectIDs is required and already scoped to
// the caller's workspaces.
type TaskFilters struct {
	ProjectIDs []string
	Status     []string
	AssigneeID *string
	Limit      int
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error

	FindByProjectID(ctx context.Context, projectID string) ([]*Task, error)
	FindByWorkspaceIDs(ctx context.Context, workspaceIDs []string) ([]*Task, error)
	FindWithFilters(ctx context.Context, filters *TaskFilters) ([]*Task, error)

	UpdateStatus(ctx context.Context, taskID, status string) error
	Assign(ctx context.Context, taskID string, assigneeID *string) error
}

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority,
	t.assignee_id, t.reporter_id, t.labels, t.due_date, t.created_at, t.updated_at`

func (r *taskRepository) Create(ctx context.Context, task *Task) error {
	if task.Labels == nil {
		task.Labels = pq.StringArray{}
	}
	query := `
		INSERT INTO tasks (project_id, title, description, status, priority,
			assignee_id, reporter_id, labels, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		task.AssigneeID, task.ReporterID, task.Labels, task.DueDate,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	task := &Task{}
	err := r.db.GetContext(ctx, task, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update never touches project_id; tasks do not move between projects here.
func (r *taskRepository) Update(ctx context.Context, task *Task) error {
	query := `
		UPDATE tasks SET title = $2, description = $3, status = $4, priority = $5,
			assignee_id = $6, labels = $7, due_date = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		task.AssigneeID, task.Labels, task.DueDate,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepository) FindByProjectID(ctx context.Context, projectID string) ([]*Task, error) {
	return r.FindWithFilters(ctx, &TaskFilters{ProjectIDs: []string{projectID}})
}

func (r *taskRepository) FindByWorkspaceIDs(ctx context.Context, workspaceIDs []string) ([]*Task, error) {
	if len(workspaceIDs) == 0 {
		return []*Task{}, nil
	}
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.workspace_id = ANY($1::uuid[])
		ORDER BY t.created_at DESC`

	var tasks []*Task
	if err := r.db.SelectContext(ctx, &tasks, query, pq.Array(workspaceIDs)); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindWithFilters(ctx context.Context, filters *TaskFilters) ([]*Task, error) {
	if len(filters.ProjectIDs) == 0 {
		return []*Task{}, nil
	}
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.project_id = ANY($1::uuid[])
		  AND (cardinality($2::text[]) = 0 OR t.status = ANY($2::text[]))
		  AND ($3::uuid IS NULL OR t.assignee_id = $3::uuid)
		ORDER BY t.created_at DESC`
	status := filters.Status
	if status == nil {
		status = []string{}
	}
	args := []interface{}{pq.Array(filters.ProjectIDs), pq.Array(status), filters.AssigneeID}
	if filters.Limit > 0 {
		query += ` LIMIT $4`
		args = append(args, filters.Limit)
	}

	var tasks []*Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, taskID, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, taskID, status)
	return err
}

// Assign sets or clears (nil) the single assignee.
func (r *taskRepository) Assign(ctx context.Context, taskID string, assigneeID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assignee_id = $2, updated_at = NOW() WHERE id = $1`, taskID, assigneeID)
	return err
}
