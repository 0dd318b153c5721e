package gallery

import (
	"errors"
	"time"
)

// Wallpaper statuses. Uploads start pending and become visible once a
// moderator approves them.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Comment statuses.
const (
	CommentVisible = "visible"
	CommentHidden  = "hidden"
)

var (
	// ErrInvalidVote indicates a vote value outside 1..5.
	ErrInvalidVote = errors.New("vote value must be between 1 and 5")
	// ErrInvalidStatus indicates an unknown wallpaper status.
	ErrInvalidStatus = errors.New("unknown wallpaper status")
)

// Wallpaper is one gallery entry.
type Wallpaper struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	CategorySlug string    `json:"category_slug"`
	Tags         []string  `json:"tags"`
	Resolution   string    `json:"resolution"`
	SizeBytes    int64     `json:"size_bytes"`
	Downloads    int       `json:"downloads"`
	Votes        int       `json:"votes"`
	Rating       float64   `json:"rating"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	UploaderID   string    `json:"uploader_id"`
	Featured     bool      `json:"featured"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Category groups wallpapers. Count is derived from approved wallpapers.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Comment on a wallpaper.
type Comment struct {
	ID          string    `json:"id"`
	WallpaperID string    `json:"wallpaper_id"`
	UserID      string    `json:"user_id"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote is one user's rating of a wallpaper. A second vote by the same user
// replaces the first.
type Vote struct {
	WallpaperID string `json:"wallpaper_id"`
	UserID      string `json:"user_id"`
	Value       int    `json:"value"`
}

// ListFilters narrows wallpaper listings. Search matches title or tags as a
// case-insensitive substring.
type ListFilters struct {
	Search   string
	Category string
	Status   string
	Featured bool
}

// UploaderStats aggregates per-user contribution counters for the profile
// stats refresh job.
type UploaderStats struct {
	UserID    string
	Uploads   int
	Downloads int
	Votes     int
}
