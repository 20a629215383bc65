package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for pricing settings.
type Repository interface {
	GetAll(ctx context.Context) (map[string]float64, error)
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, key string, value float64, updatedBy int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetAll(ctx context.Context) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM pricing_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (r *repository) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.pool.QueryRow(ctx, `
		SELECT key, value, updated_by, updated_at
		FROM pricing_settings
		WHERE key = $1
	`, key).Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) Upsert(ctx context.Context, key string, value float64, updatedBy int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pricing_settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()
	`, key, value, updatedBy)
	return err
}
