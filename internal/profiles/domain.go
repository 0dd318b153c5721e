package profiles

import "time"

// Status enumerates account states.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending, StatusSuspended:
		return true
	}
	return false
}

// Preferences captured during onboarding.
type Preferences struct {
	EmailNotifications bool   `json:"email_notifications"`
	DownloadQuality    string `json:"download_quality"`
	Theme              string `json:"theme"`
}

// DefaultPreferences returns the preferences assigned to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{EmailNotifications: true, DownloadQuality: "high", Theme: "light"}
}

// Profile represents a user account. ID is the stable identity and never
// changes; everything else is mutable subject to permission checks.
type Profile struct {
	ID                  string      `json:"id"`
	Email               string      `json:"email"`
	FullName            string      `json:"full_name"`
	Bio                 string      `json:"bio"`
	Website             string      `json:"website"`
	AvatarURL           string      `json:"avatar_url"`
	RoleName            string      `json:"role_name"`
	Status              Status      `json:"status"`
	OnboardingCompleted bool        `json:"onboarding_completed"`
	FavoriteCategories  []string    `json:"favorite_categories"`
	Preferences         Preferences `json:"preferences"`
	UploadsCount        int         `json:"uploads_count"`
	DownloadsCount      int         `json:"downloads_count"`
	VotesCount          int         `json:"votes_count"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	LastLoginAt         *time.Time  `json:"last_login_at,omitempty"`
}

// Update describes a partial profile mutation; nil fields are left alone.
type Update struct {
	FullName           *string
	Bio                *string
	Website            *string
	AvatarURL          *string
	FavoriteCategories *[]string
	Preferences        *Preferences
}

// ListFilters narrows admin user listings. Search matches name or email as
// a case-insensitive substring; empty fields are ignored.
type ListFilters struct {
	Search string
	Role   string
	Status string
}
