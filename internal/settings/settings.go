package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// SiteSettings is the single document driving the public site's look.
type SiteSettings struct {
	SiteName    string            `json:"site_name"`
	Tagline     string            `json:"tagline"`
	HeroTitle   string            `json:"hero_title"`
	HeroSubtext string            `json:"hero_subtext"`
	Colors      map[string]string `json:"colors"`
	SocialLinks map[string]string `json:"social_links"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Defaults returns the settings used before an admin saves anything.
func Defaults() SiteSettings {
	return SiteSettings{
		SiteName:    "WallHub",
		Tagline:     "Wallpapers worth staring at",
		HeroTitle:   "Find your next wallpaper",
		HeroSubtext: "Curated, high resolution, free to download.",
		Colors:      map[string]string{"primary": "#6d28d9", "accent": "#f59e0b"},
		SocialLinks: map[string]string{},
	}
}

// Repository persists the settings document.
type Repository interface {
	Load(ctx context.Context) (*SiteSettings, error)
	Save(ctx context.Context, s SiteSettings) error
}

// PGRepository implements Repository using PostgreSQL. The table holds at
// most one row.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Load reads the settings document, or nil when none was ever saved.
func (r *PGRepository) Load(ctx context.Context) (*SiteSettings, error) {
	var payload []byte
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, `SELECT data, updated_at FROM site_settings WHERE id = 1`).Scan(&payload, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var s SiteSettings
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	s.UpdatedAt = updatedAt
	return &s, nil
}

// Save upserts the settings document.
func (r *PGRepository) Save(ctx context.Context, s SiteSettings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO site_settings (id, data, updated_at) VALUES (1, $1, NOW())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		payload)
	return err
}

var _ Repository = (*PGRepository)(nil)

const cacheKey = "settings:site"

// Service serves settings through a Redis cache. Reads hit Redis first;
// writes go to PostgreSQL and refresh the cache.
type Service struct {
	repo     Repository
	client   *redis.Client
	cacheTTL time.Duration
}

// NewService constructs a Service.
func NewService(repo Repository, client *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, client: client, cacheTTL: cacheTTL}
}

// Get returns the current settings, falling back to defaults when nothing
// was ever saved.
func (s *Service) Get(ctx context.Context) (SiteSettings, error) {
	if s.client != nil {
		if payload, err := s.client.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached SiteSettings
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		}
	}

	stored, err := s.repo.Load(ctx)
	if err != nil {
		return SiteSettings{}, err
	}
	if stored == nil {
		defaults := Defaults()
		return defaults, nil
	}
	s.fillCache(ctx, *stored)
	return *stored, nil
}

// Update replaces the settings document.
func (s *Service) Update(ctx context.Context, next SiteSettings) (SiteSettings, error) {
	next.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, next); err != nil {
		return SiteSettings{}, err
	}
	s.fillCache(ctx, next)
	return next, nil
}

func (s *Service) fillCache(ctx context.Context, settings SiteSettings) {
	if s.client == nil {
		return
	}
	if payload, err := json.Marshal(settings); err == nil {
		_ = s.client.Set(ctx, cacheKey, payload, s.cacheTTL).Err()
	}
}
