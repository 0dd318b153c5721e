package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallhub/wallhub/internal/platform/db"
	"github.com/wallhub/wallhub/internal/shared"
)

// ErrDuplicateSlug indicates an upload whose slug is already taken.
var ErrDuplicateSlug = errors.New("wallpaper slug already exists")

const wallpaperColumns = `id, title, slug, category_slug, tags, resolution, size_bytes, downloads, votes, rating, url, thumbnail_url, uploader_id, featured, status, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for the gallery.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListWallpapers returns wallpapers matching the filters, newest first.
func (r *Repository) ListWallpapers(ctx context.Context, filters ListFilters) ([]Wallpaper, error) {
	query := `SELECT ` + wallpaperColumns + ` FROM wallpapers`
	var conditions []string
	var args []any
	argPos := 1

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE $%d))", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category_slug = $%d", argPos))
		args = append(args, filters.Category)
		argPos++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filters.Status)
		argPos++
	}
	if filters.Featured {
		conditions = append(conditions, "featured")
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

	var wallpapers []Wallpaper
	for rows.Next() {
		wp, err := scanWallpaper(rows)
		if err != nil {
			return nil, err
		}
		wallpapers = append(wallpapers, *wp)
	}
	return wallpapers, rows.Err()
}

// GetBySlug loads a wallpaper by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Wallpaper, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+wallpaperColumns+` FROM wallpapers WHERE slug = $1`, slug)
	return scanWallpaper(row)
}

// GetByID loads a wallpaper by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Wallpaper, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+wallpaperColumns+` FROM wallpapers WHERE id = $1`, id)
	return scanWallpaper(row)
}

// Insert stores a new upload.
func (r *Repository) Insert(ctx context.Context, wp Wallpaper) (*Wallpaper, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO wallpapers (id, title, slug, category_slug, tags, resolution, size_bytes, downloads, votes, rating, url, thumbnail_url, uploader_id, featured, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, $8, $9, $10, FALSE, $11, $12, $12)
		 RETURNING `+wallpaperColumns,
		wp.ID, wp.Title, wp.Slug, wp.CategorySlug, wp.Tags, wp.Resolution, wp.SizeBytes, wp.URL, wp.ThumbnailURL, wp.UploaderID, wp.Status, now)
	created, err := scanWallpaper(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrDuplicateSlug
	}
	return created, err
}

// SetStatus moves a wallpaper through moderation.
func (r *Repository) SetStatus(ctx context.Context, id, status string) error {
	return r.exec(ctx, `UPDATE wallpapers SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

// SetFeatured toggles the featured flag.
func (r *Repository) SetFeatured(ctx context.Context, id string, featured bool) error {
	return r.exec(ctx, `UPDATE wallpapers SET featured = $2, updated_at = NOW() WHERE id = $1`, id, featured)
}

// Delete removes a wallpaper and its votes and comments.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM wallpaper_votes WHERE wallpaper_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM wallpaper_comments WHERE wallpaper_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM wallpapers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// IncrementDownloads bumps the download counter.
func (r *Repository) IncrementDownloads(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE wallpapers SET downloads = downloads + 1 WHERE id = $1`, id)
}

// CastVote upserts a user's vote and recomputes the wallpaper's vote count
// and mean rating in the same transaction.
func (r *Repository) CastVote(ctx context.Context, vote Vote) (*Wallpaper, error) {
	var updated *Wallpaper
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO wallpaper_votes (wallpaper_id, user_id, value, created_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (wallpaper_id, user_id) DO UPDATE SET value = EXCLUDED.value, created_at = NOW()`,
			vote.WallpaperID, vote.UserID, vote.Value)
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`UPDATE wallpapers SET
				votes = sub.count,
				rating = sub.mean,
				updated_at = NOW()
			 FROM (SELECT COUNT(*) AS count, COALESCE(AVG(value), 0) AS mean FROM wallpaper_votes WHERE wallpaper_id = $1) sub
			 WHERE id = $1
			 RETURNING `+wallpaperColumns,
			vote.WallpaperID)
		updated, err = scanWallpaper(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListComments returns a wallpaper's comments, oldest first. Hidden comments
// are included; callers filter by permission.
func (r *Repository) ListComments(ctx context.Context, wallpaperID string) ([]Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, wallpaper_id, user_id, body, status, created_at FROM wallpaper_comments WHERE wallpaper_id = $1 ORDER BY created_at ASC`,
		wallpaperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.WallpaperID, &c.UserID, &c.Body, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddComment inserts a comment.
func (r *Repository) AddComment(ctx context.Context, c Comment) (*Comment, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO wallpaper_comments (id, wallpaper_id, user_id, body, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		c.ID, c.WallpaperID, c.UserID, c.Body, c.Status).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetCommentStatus hides or restores a comment.
func (r *Repository) SetCommentStatus(ctx context.Context, id, status string) error {
	return r.exec(ctx, `UPDATE wallpaper_comments SET status = $2 WHERE id = $1`, id, status)
}

// ListCategories returns categories with approved wallpaper counts.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.slug, c.description, COUNT(w.id) FILTER (WHERE w.status = 'approved')
		 FROM categories c
		 LEFT JOIN wallpapers w ON w.category_slug = c.slug
		 GROUP BY c.id, c.name, c.slug, c.description
		 ORDER BY c.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Count); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UploaderStats aggregates contribution counters per uploader for the stats
// refresh job.
func (r *Repository) UploaderStats(ctx context.Context) ([]UploaderStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.uploader_id,
			COUNT(DISTINCT w.id),
			COALESCE(SUM(w.downloads), 0),
			COALESCE((SELECT COUNT(*) FROM wallpaper_votes v JOIN wallpapers wv ON wv.id = v.wallpaper_id WHERE wv.uploader_id = w.uploader_id), 0)
		 FROM wallpapers w
		 GROUP BY w.uploader_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []UploaderStats
	for rows.Next() {
		var s UploaderStats
		if err := rows.Scan(&s.UserID, &s.Uploads, &s.Downloads, &s.Votes); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
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

func scanWallpaper(row pgx.Row) (*Wallpaper, error) {
	var wp Wallpaper
	err := row.Scan(&wp.ID, &wp.Title, &wp.Slug, &wp.CategorySlug, &wp.Tags, &wp.Resolution, &wp.SizeBytes, &wp.Downloads, &wp.Votes, &wp.Rating, &wp.URL, &wp.ThumbnailURL, &wp.UploaderID, &wp.Featured, &wp.Status, &wp.CreatedAt, &wp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &wp, nil
}
