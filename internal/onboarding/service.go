package onboarding

import (
	"context"
	"fmt"

	"github.com/wallhub/wallhub/internal/profiles"
	"github.com/wallhub/wallhub/internal/shared"
)

// ProfilePort is the slice of the profiles repository onboarding needs.
type ProfilePort interface {
	Fetch(ctx context.Context, id string) (*profiles.Profile, error)
	CompleteOnboarding(ctx context.Context, id string, update profiles.Update) (*profiles.Profile, error)
}

// Service drives the onboarding flow.
type Service struct {
	repo     Repository
	profiles ProfilePort
	notifier shared.Notifier
}

// NewService constructs a Service.
func NewService(repo Repository, profilePort ProfilePort, notifier shared.Notifier) *Service {
	return &Service{repo: repo, profiles: profilePort, notifier: notifier}
}

// GetProgress reports where the user stands and the answers saved so far.
func (s *Service) GetProgress(ctx context.Context, userID string) (Progress, error) {
	profile, err := s.profiles.Fetch(ctx, userID)
	if err != nil {
		return Progress{}, fmt.Errorf("onboarding: fetch profile: %w", err)
	}

	records, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return Progress{}, fmt.Errorf("onboarding: list steps: %w", err)
	}

	completed := make(map[string]bool, len(records))
	var data FormData
	var completedSteps []string
	for _, rec := range records {
		completed[rec.StepName] = true
		completedSteps = append(completedSteps, rec.StepName)
		data = mergeData(data, rec.StepName, rec.Data)
	}

	return Progress{
		CurrentStep:    currentStep(completed),
		CompletedSteps: completedSteps,
		Data:           data,
		Finished:       profile.OnboardingCompleted,
	}, nil
}

// SaveStep records one step's answers. Steps must arrive in order; resaving
// an already finished step just overwrites it.
func (s *Service) SaveStep(ctx context.Context, userID, step string, data FormData) (Progress, error) {
	if stepIndex(step) < 0 || step == StepComplete {
		return Progress{}, ErrUnknownStep
	}

	progress, err := s.GetProgress(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	if progress.Finished {
		return Progress{}, ErrAlreadyCompleted
	}

	completed := make(map[string]bool, len(progress.CompletedSteps))
	for _, name := range progress.CompletedSteps {
		completed[name] = true
	}
	if !canSave(step, completed) {
		return Progress{}, ErrStepOutOfOrder
	}

	if err := s.repo.SaveStep(ctx, Record{UserID: userID, StepName: step, Data: data}); err != nil {
		return Progress{}, fmt.Errorf("onboarding: save step %s: %w", step, err)
	}
	return s.GetProgress(ctx, userID)
}

// Finish writes the accumulated answers to the profile, flips the completed
// flag and activates the account.
func (s *Service) Finish(ctx context.Context, userID string) (*profiles.Profile, error) {
	progress, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress.Finished {
		return nil, ErrAlreadyCompleted
	}
	if progress.CurrentStep != StepComplete {
		return nil, ErrStepOutOfOrder
	}

	update := progress.Data.toUpdate()
	profile, err := s.profiles.CompleteOnboarding(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("onboarding: complete: %w", err)
	}

	if err := s.repo.SaveStep(ctx, Record{UserID: userID, StepName: StepComplete}); err != nil {
		return nil, fmt.Errorf("onboarding: record completion: %w", err)
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, shared.NotifySuccess, "Your account is ready")
	}
	return profile, nil
}

// Restart wipes saved steps so the flow begins again. Finished accounts
// cannot restart.
func (s *Service) Restart(ctx context.Context, userID string) error {
	progress, err := s.GetProgress(ctx, userID)
	if err != nil {
		return err
	}
	if progress.Finished {
		return ErrAlreadyCompleted
	}
	return s.repo.DeleteForUser(ctx, userID)
}

func (d FormData) toUpdate() profiles.Update {
	update := profiles.Update{}
	if d.FullName != "" {
		update.FullName = &d.FullName
	}
	if d.Bio != "" {
		update.Bio = &d.Bio
	}
	if d.Website != "" {
		update.Website = &d.Website
	}
	if d.AvatarURL != "" {
		update.AvatarURL = &d.AvatarURL
	}
	if d.FavoriteCategories != nil {
		update.FavoriteCategories = &d.FavoriteCategories
	}
	if d.Preferences != nil {
		update.Preferences = d.Preferences
	}
	return update
}
