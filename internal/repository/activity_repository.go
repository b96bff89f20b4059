package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Activity is an append-only audit record of a successful mutation.
type Activity struct {
	ID         string
	EntityType string
	EntityID   string
	Action     string
	UserID     string
	Changes    map[string]interface{}
	CreatedAt  time.Time
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Activity, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]*Activity, error)
}

type pgActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &pgActivityRepository{pool: pool}
}

func (r *pgActivityRepository) Create(ctx context.Context, activity *Activity) error {
	query := `
		INSERT INTO activities (entity_type, entity_id, action, user_id, changes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		activity.EntityType, activity.EntityID, activity.Action, activity.UserID, activity.Changes,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *pgActivityRepository) FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Activity, error) {
	query := `
		SELECT id, entity_type, entity_id, action, user_id, changes, created_at
		FROM activities WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	return r.list(ctx, query, entityType, entityID, limit)
}

func (r *pgActivityRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*Activity, error) {
	query := `
		SELECT id, entity_type, entity_id, action, user_id, changes, created_at
		FROM activities WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, userID, limit)
}

func (r *pgActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]*Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a := &Activity{}
		if err := rows.Scan(
			&a.ID, &a.EntityType, &a.EntityID, &a.Action, &a.UserID, &a.Changes, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
