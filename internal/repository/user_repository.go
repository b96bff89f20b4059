package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is created the first time an identity-provider subject signs in.
type User struct {
	ID         string
	ExternalID string
	Email      string
	Name       string
	Avatar     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UserRepository interface {
	// Upsert creates the user for an external id or refreshes its profile.
	Upsert(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (external_id, email, name, avatar)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name,
		    avatar = COALESCE(EXCLUDED.avatar, users.avatar),
		    updated_at = CASE
		        WHEN users.email IS DISTINCT FROM EXCLUDED.email OR users.name IS DISTINCT FROM EXCLUDED.name
		        THEN NOW() ELSE users.updated_at END
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query, user.ExternalID, user.Email, user.Name, user.Avatar).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *pgUserRepository) findOne(ctx context.Context, where string, arg string) (*User, error) {
	query := `
		SELECT id, external_id, email, name, avatar, created_at, updated_at
		FROM users WHERE ` + where + ` = $1
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.ExternalID, &user.Email, &user.Name, &user.Avatar,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *pgUserRepository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.findOne(ctx, "external_id", externalID)
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "email", email)
}

// DeleteByExternalID removes the user; memberships go with it (ON DELETE CASCADE).
func (r *pgUserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	query := `DELETE FROM users WHERE external_id = $1`
	_, err := r.pool.Exec(ctx, query, externalID)
	return err
}
