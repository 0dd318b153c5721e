package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wallhub/wallhub/internal/profiles"
	"github.com/wallhub/wallhub/internal/rbac"
	"github.com/wallhub/wallhub/internal/shared"
)

// ProfilePort is the slice of the profiles repository auth needs.
type ProfilePort interface {
	Fetch(ctx context.Context, id string) (*profiles.Profile, error)
	Create(ctx context.Context, p profiles.Profile) (*profiles.Profile, error)
	TouchLastLogin(ctx context.Context, userID string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo       Repository
	profiles   ProfilePort
	bcryptCost int
}

// NewService constructs a new Service.
func NewService(repo Repository, profilePort ProfilePort, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, profiles: profilePort, bcryptCost: bcryptCost}
}

// Authenticate validates email/password credentials and returns the matching
// profile. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*profiles.Profile, error) {
	cred, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	profile, err := s.profiles.Fetch(ctx, cred.UserID)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if profile.Status == profiles.StatusSuspended || profile.Status == profiles.StatusInactive {
		return nil, ErrAccountDisabled
	}
	return profile, nil
}

// SignUp registers a new account. New accounts start on the user role with
// pending status until onboarding finishes.
func (s *Service) SignUp(ctx context.Context, email, password, fullName string) (*profiles.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	userID := uuid.NewString()
	if err := s.repo.CreateCredential(ctx, Credential{UserID: userID, Email: email, PasswordHash: string(hash)}); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("auth: create credential: %w", err)
	}

	profile, err := s.profiles.Create(ctx, profiles.Profile{
		ID:          userID,
		Email:       email,
		FullName:    fullName,
		RoleName:    rbac.RoleUser,
		Status:      profiles.StatusPending,
		Preferences: profiles.DefaultPreferences(),
	})
	if err != nil {
		return nil, fmt.Errorf("auth: create profile: %w", err)
	}
	return profile, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// TouchLastLogin stamps the profile's last login time.
func (s *Service) TouchLastLogin(ctx context.Context, userID string) error {
	return s.profiles.TouchLastLogin(ctx, userID)
}
