package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Core repositories (pgxpool)
	UserRepo      UserRepository
	WorkspaceRepo WorkspaceRepository
	ProjectRepo   ProjectRepository
	ActivityRepo  ActivityRepository

	// Work items (sqlx over the pgx stdlib driver)
	TaskRepo       TaskRepository
	BugRepo        BugRepository
	DocumentRepo   DocumentRepository
	CommentRepo    CommentRepository
	AttachmentRepo AttachmentRepository

	// Containment is the authz.Store the engine reads through.
	Containment *ContainmentStore
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	workspaces := NewWorkspaceRepository(pool)
	return &Repositories{
		UserRepo:      NewUserRepository(pool),
		WorkspaceRepo: workspaces,
		ProjectRepo:   NewProjectRepository(pool),
		ActivityRepo:  NewActivityRepository(pool),

		TaskRepo:       NewTaskRepository(db),
		BugRepo:        NewBugRepository(db),
		DocumentRepo:   NewDocumentRepository(db),
		CommentRepo:    NewCommentRepository(db),
		AttachmentRepo: NewAttachmentRepository(db),

		Containment: NewContainmentStore(pool, workspaces),
	}
}
