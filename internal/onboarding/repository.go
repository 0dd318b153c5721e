package onboarding

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists onboarding step records.
type Repository interface {
	SaveStep(ctx context.Context, rec Record) error
	ListForUser(ctx context.Context, userID string) ([]Record, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// SaveStep upserts a step record. The (user_id, step_name) pair is unique,
// so saving a step again overwrites data and timestamp instead of adding a
// second row.
func (r *PGRepository) SaveStep(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO onboarding_steps (user_id, step_name, data, completed_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, step_name) DO UPDATE SET data = EXCLUDED.data, completed_at = NOW()`,
		rec.UserID, rec.StepName, data)
	return err
}

// ListForUser returns a user's saved steps in flow order.
func (r *PGRepository) ListForUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, step_name, data, completed_at FROM onboarding_steps WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStep := make(map[string]Record)
	for rows.Next() {
		var rec Record
		var data []byte
		if err := rows.Scan(&rec.UserID, &rec.StepName, &data, &rec.CompletedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &rec.Data); err != nil {
				return nil, err
			}
		}
		byStep[rec.StepName] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []Record
	for _, step := range Steps {
		if rec, ok := byStep[step]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DeleteForUser clears all step records, restarting the flow from scratch.
func (r *PGRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM onboarding_steps WHERE user_id = $1`, userID)
	return err
}

var _ Repository = (*PGRepository)(nil)
