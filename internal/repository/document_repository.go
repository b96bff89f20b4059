package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

type Document struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"projectId" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedBy *string   `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, id string) (*Document, error)
	FindByProjectID(ctx context.Context, projectID string) ([]*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (project_id, title, content, created_by)
		VALUES (:project_id, :title, :content, :created_by)
		RETURNING id, created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, doc)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *documentRepository) FindByID(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	err := r.db.GetContext(ctx, doc, `
		SELECT id, project_id, title, content, created_by, created_at, updated_at
		FROM documents WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepository) FindByProjectID(ctx context.Context, projectID string) ([]*Document, error) {
	var docs []*Document
	err := r.db.SelectContext(ctx, &docs, `
		SELECT id, project_id, title, content, created_by, created_at, updated_at
		FROM documents WHERE project_id = $1
		ORDER BY title`, projectID)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *Document) error {
	return r.db.QueryRowxContext(ctx, `
		UPDATE documents SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`, doc.ID, doc.Title, doc.Content,
	).Scan(&doc.UpdatedAt)
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}
