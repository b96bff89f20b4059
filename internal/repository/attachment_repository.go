package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Attachment hangs off a comment; its workspace is reached through
// comment -> task -> project.
type Attachment struct {
	ID         string    `json:"id" db:"id"`
	CommentID  string    `json:"commentId" db:"comment_id"`
	Name       string    `json:"name" db:"name"`
	URL        string    `json:"url" db:"url"`
	Size       int64     `json:"size" db:"size"`
	MimeType   *string   `json:"mimeType,omitempty" db:"mime_type"`
	UploadedBy *string   `json:"uploadedBy,omitempty" db:"uploaded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *Attachment) error
	FindByID(ctx context.Context, id string) (*Attachment, error)
	FindByCommentID(ctx context.Context, commentID string) ([]*Attachment, error)
	Delete(ctx context.Context, id string) error
}

type attachmentRepository struct {
	db *sqlx.DB
}

func NewAttachmentRepository(db *sqlx.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *Attachment) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO attachments (comment_id, name, url, size, mime_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		attachment.CommentID, attachment.Name, attachment.URL, attachment.Size,
		attachment.MimeType, attachment.UploadedBy,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) FindByID(ctx context.Context, id string) (*Attachment, error) {
	attachment := &Attachment{}
	err := r.db.GetContext(ctx, attachment, `
		SELECT id, comment_id, name, url, size, mime_type, uploaded_by, created_at
		FROM attachments WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func (r *attachmentRepository) FindByCommentID(ctx context.Context, commentID string) ([]*Attachment, error) {
	var attachments []*Attachment
	err := r.db.SelectContext(ctx, &attachments, `
		SELECT id, comment_id, name, url, size, mime_type, uploaded_by, created_at
		FROM attachments WHERE comment_id = $1
		ORDER BY created_at ASC`, commentID)
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	return err
}
