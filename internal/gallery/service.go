package gallery

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wallhub/wallhub/internal/observability"
)

// Store defines the persistence surface the service needs.
type Store interface {
	ListWallpapers(ctx context.Context, filters ListFilters) ([]Wallpaper, error)
	GetBySlug(ctx context.Context, slug string) (*Wallpaper, error)
	Insert(ctx context.Context, wp Wallpaper) (*Wallpaper, error)
	SetStatus(ctx context.Context, id, status string) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	Delete(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
	CastVote(ctx context.Context, vote Vote) (*Wallpaper, error)
	ListComments(ctx context.Context, wallpaperID string) ([]Comment, error)
	AddComment(ctx context.Context, c Comment) (*Comment, error)
	SetCommentStatus(ctx context.Context, id, status string) error
	ListCategories(ctx context.Context) ([]Category, error)
}

var _ Store = (*Repository)(nil)

// Service holds gallery business rules on top of the repository and cache.
type Service struct {
	repo    Store
	cache   *ListCache
	metrics *observability.Metrics
	titler  cases.Caser
}

// NewService constructs a Service.
func NewService(repo Store, cache *ListCache, metrics *observability.Metrics) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		titler:  cases.Title(language.English),
	}
}

// ListApproved returns the public listing. Results are cached; concurrent
// misses on the same filters build once.
func (s *Service) ListApproved(ctx context.Context, filters ListFilters) ([]Wallpaper, error) {
	filters.Status = StatusApproved
	key := fmt.Sprintf("s=%s|c=%s|f=%t", strings.ToLower(filters.Search), filters.Category, filters.Featured)
	if s.cache == nil {
		return s.repo.ListWallpapers(ctx, filters)
	}
	return s.cache.GetOrBuild(ctx, key, func(ctx context.Context) ([]Wallpaper, error) {
		return s.repo.ListWallpapers(ctx, filters)
	})
}

// ListForModeration returns wallpapers by status, uncached.
func (s *Service) ListForModeration(ctx context.Context, status string) ([]Wallpaper, error) {
	if status == "" {
		status = StatusPending
	}
	if status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListWallpapers(ctx, ListFilters{Status: status})
}

// Get loads one wallpaper by slug.
func (s *Service) Get(ctx context.Context, slug string) (*Wallpaper, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// UploadInput carries a new wallpaper submission.
type UploadInput struct {
	Title        string
	CategorySlug string
	Tags         []string
	Resolution   string
	SizeBytes    int64
	URL          string
	ThumbnailURL string
}

// Upload registers a new wallpaper in pending status.
func (s *Service) Upload(ctx context.Context, uploaderID string, in UploadInput) (*Wallpaper, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("gallery: title is required")
	}
	wp := Wallpaper{
		ID:           uuid.NewString(),
		Title:        title,
		Slug:         Slugify(title),
		CategorySlug: in.CategorySlug,
		Tags:         in.Tags,
		Resolution:   in.Resolution,
		SizeBytes:    in.SizeBytes,
		URL:          in.URL,
		ThumbnailURL: in.ThumbnailURL,
		UploaderID:   uploaderID,
		Status:       StatusPending,
	}
	created, err := s.repo.Insert(ctx, wp)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Moderate approves or rejects a pending wallpaper.
func (s *Service) Moderate(ctx context.Context, id, status string) error {
	if status != StatusApproved && status != StatusRejected {
		return ErrInvalidStatus
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// SetFeatured toggles the featured flag.
func (s *Service) SetFeatured(ctx context.Context, id string, featured bool) error {
	if err := s.repo.SetFeatured(ctx, id, featured); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a wallpaper entirely.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Download bumps the counter and the downloads metric. Listings keep the
// cached counter until the next invalidation; the detail view is always
// fresh.
func (s *Service) Download(ctx context.Context, id string) error {
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		return err
	}
	s.metrics.CountDownload()
	return nil
}

// VoteFor records a 1..5 vote and returns the wallpaper with its recomputed
// mean rating.
func (s *Service) VoteFor(ctx context.Context, userID, wallpaperID string, value int) (*Wallpaper, error) {
	if value < 1 || value > 5 {
		return nil, ErrInvalidVote
	}
	updated, err := s.repo.CastVote(ctx, Vote{WallpaperID: wallpaperID, UserID: userID, Value: value})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// CommentOn adds a visible comment.
func (s *Service) CommentOn(ctx context.Context, userID, wallpaperID, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("gallery: comment body is required")
	}
	return s.repo.AddComment(ctx, Comment{
		ID:          uuid.NewString(),
		WallpaperID: wallpaperID,
		UserID:      userID,
		Body:        body,
		Status:      CommentVisible,
	})
}

// Comments lists a wallpaper's comments. Hidden comments are stripped unless
// the caller moderates.
func (s *Service) Comments(ctx context.Context, wallpaperID string, includeHidden bool) ([]Comment, error) {
	comments, err := s.repo.ListComments(ctx, wallpaperID)
	if err != nil {
		return nil, err
	}
	if includeHidden {
		return comments, nil
	}
	visible := comments[:0]
	for _, c := range comments {
		if c.Status == CommentVisible {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// HideComment hides a comment from public listings.
func (s *Service) HideComment(ctx context.Context, id string) error {
	return s.repo.SetCommentStatus(ctx, id, CommentHidden)
}

// Categories lists categories with normalized display names.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].Name = s.titler.String(categories[i].Name)
	}
	return categories, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// Slugify lowercases and collapses non-alphanumerics into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
