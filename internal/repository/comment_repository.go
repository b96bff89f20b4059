package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Comment struct {
	ID             string         `json:"id" db:"id"`
	TaskID         string         `json:"taskId" db:"task_id"`
	UserID         *string        `json:"userId,omitempty" db:"user_id"`
	Content        string         `json:"content" db:"content"`
	MentionedUsers pq.StringArray `json:"mentionedUsers" db:"mentioned_users"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	FindByTaskID(ctx context.Context, taskID string) ([]*Comment, error)
	Update(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *Comment) error {
	if comment.MentionedUsers == nil {
		comment.MentionedUsers = pq.StringArray{}
	}
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO comments (task_id, user_id, content, mentioned_users)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		comment.TaskID, comment.UserID, comment.Content, comment.MentionedUsers,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	comment := &Comment{}
	err := r.db.GetContext(ctx, comment, `
		SELECT id, task_id, user_id, content, mentioned_users, created_at, updated_at
		FROM comments WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *commentRepository) FindByTaskID(ctx context.Context, taskID string) ([]*Comment, error) {
	var comments []*Comment
	err := r.db.SelectContext(ctx, &comments, `
		SELECT id, task_id, user_id, content, mentioned_users, created_at, updated_at
		FROM comments WHERE task_id = $1
		ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *Comment) error {
	return r.db.QueryRowxContext(ctx, `
		UPDATE comments SET content = $2, mentioned_users = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`, comment.ID, comment.Content, comment.MentionedUsers,
	).Scan(&comment.UpdatedAt)
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
