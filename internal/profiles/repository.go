package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallhub/wallhub/internal/shared"
)

const profileColumns = `id, email, full_name, bio, website, avatar_url, role_name, status, onboarding_completed, favorite_categories, preferences, uploads_count, downloads_count, votes_count, created_at, updated_at, last_login_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Fetch loads a profile by id.
func (r *Repository) Fetch(ctx context.Context, id string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// FetchByEmail loads a profile by email.
func (r *Repository) FetchByEmail(ctx context.Context, email string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE email = $1`, email)
	return scanProfile(row)
}

// List returns profiles matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles`
	var conditions []string
	var args []any
	argPos := 1

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role_name = $%d", argPos))
		args = append(args, filters.Role)
		argPos++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filters.Status)
		argPos++
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Create inserts a freshly registered profile.
func (r *Repository) Create(ctx context.Context, p Profile) (*Profile, error) {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (id, email, full_name, bio, website, avatar_url, role_name, status, onboarding_completed, favorite_categories, preferences, uploads_count, downloads_count, votes_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, 0, 0, $12, $12)
		 RETURNING `+profileColumns,
		p.ID, p.Email, p.FullName, p.Bio, p.Website, p.AvatarURL, p.RoleName, p.Status, p.OnboardingCompleted, p.FavoriteCategories, prefs, now)
	return scanProfile(row)
}

// Apply performs a partial update and returns the refreshed profile.
func (r *Repository) Apply(ctx context.Context, id string, update Update) (*Profile, error) {
	set := []string{"updated_at = NOW()"}
	var args []any
	argPos := 1

	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}
	if update.FullName != nil {
		add("full_name", *update.FullName)
	}
	if update.Bio != nil {
		add("bio", *update.Bio)
	}
	if update.Website != nil {
		add("website", *update.Website)
	}
	if update.AvatarURL != nil {
		add("avatar_url", *update.AvatarURL)
	}
	if update.FavoriteCategories != nil {
		add("favorite_categories", *update.FavoriteCategories)
	}
	if update.Preferences != nil {
		prefs, err := json.Marshal(*update.Preferences)
		if err != nil {
			return nil, err
		}
		add("preferences", prefs)
	}

	query := "UPDATE user_profiles SET " + set[0]
	for _, clause := range set[1:] {
		query += ", " + clause
	}
	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argPos, profileColumns)
	args = append(args, id)

	row := r.pool.QueryRow(ctx, query, args...)
	return scanProfile(row)
}

// CompleteOnboarding writes the accumulated onboarding data and flips the
// flag in one statement.
func (r *Repository) CompleteOnboarding(ctx context.Context, id string, update Update) (*Profile, error) {
	p, err := r.Apply(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if p.OnboardingCompleted {
		return p, nil
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE user_profiles SET onboarding_completed = TRUE, status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+profileColumns,
		id, StatusActive)
	return scanProfile(row)
}

// SetRole updates role_name and stamps updated_at.
func (r *Repository) SetRole(ctx context.Context, userID, roleName string) error {
	return r.exec(ctx, `UPDATE user_profiles SET role_name = $2, updated_at = NOW() WHERE id = $1`, userID, roleName)
}

// SetStatus updates status and stamps updated_at.
func (r *Repository) SetStatus(ctx context.Context, userID, status string) error {
	return r.exec(ctx, `UPDATE user_profiles SET status = $2, updated_at = NOW() WHERE id = $1`, userID, status)
}

// Delete hard-deletes a profile. Only the admin delete action reaches this.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	return r.exec(ctx, `DELETE FROM user_profiles WHERE id = $1`, userID)
}

// CountByRole counts profiles referencing a role name.
func (r *Repository) CountByRole(ctx context.Context, roleName string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_profiles WHERE role_name = $1`, roleName).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStats writes the recomputed contribution counters. Missing profiles
// are ignored; the uploader may have been deleted since the aggregation ran.
func (r *Repository) UpdateStats(ctx context.Context, userID string, uploads, downloads, votes int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE user_profiles SET uploads_count = $2, downloads_count = $3, votes_count = $4, updated_at = NOW() WHERE id = $1`,
		userID, uploads, downloads, votes)
	return err
}

// TouchLastLogin stamps last_login_at.
func (r *Repository) TouchLastLogin(ctx context.Context, userID string) error {
	return r.exec(ctx, `UPDATE user_profiles SET last_login_at = NOW() WHERE id = $1`, userID)
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var prefs []byte
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Bio, &p.Website, &p.AvatarURL, &p.RoleName, &p.Status, &p.OnboardingCompleted, &p.FavoriteCategories, &prefs, &p.UploadsCount, &p.DownloadsCount, &p.VotesCount, &p.CreatedAt, &p.UpdatedAt, &p.LastLoginAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
