// Package audit exposes read access to the audit trail written by the
// shared audit logger.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a single audit trail record.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Filters narrows a trail listing. Zero values mean "any".
type Filters struct {
	ActorID string
	Action  string
	Entity  string
	Since   time.Time
	Until   time.Time
	Limit   int
}

// Repository reads audit trail entries.
type Repository interface {
	List(ctx context.Context, f Filters) ([]Entry, error)
}

// PGRepository implements Repository over PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PGRepository)(nil)

// NewRepository creates a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns entries newest first, honoring the filters.
func (r *PGRepository) List(ctx context.Context, f Filters) ([]Entry, error) {
	query := `SELECT id, actor_id, action, entity, entity_id, meta, occurred_at FROM audit_logs WHERE 1=1`
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if f.ActorID != "" {
		add(" AND actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add(" AND action = $%d", f.Action)
	}
	if f.Entity != "" {
		add(" AND entity = $%d", f.Entity)
	}
	if !f.Since.IsZero() {
		add(" AND occurred_at >= $%d", f.Since.UTC())
	}
	if !f.Until.IsZero() {
		add(" AND occurred_at < $%d", f.Until.UTC())
	}
	add(" ORDER BY occurred_at DESC, id DESC LIMIT $%d", f.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &metaJSON, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode audit meta: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
