package onboarding

import (
	"errors"
	"time"

	"github.com/wallhub/wallhub/internal/profiles"
)

// Step names, in flow order. The complete step is terminal and only recorded
// when the whole flow finishes.
const (
	StepWelcome     = "welcome"
	StepProfile     = "profile"
	StepPreferences = "preferences"
	StepComplete    = "complete"
)

// Steps lists the flow in order.
var Steps = []string{StepWelcome, StepProfile, StepPreferences, StepComplete}

var (
	// ErrUnknownStep indicates a step name outside the flow.
	ErrUnknownStep = errors.New("unknown onboarding step")
	// ErrStepOutOfOrder indicates a step submitted before its predecessors.
	ErrStepOutOfOrder = errors.New("onboarding step out of order")
	// ErrAlreadyCompleted indicates onboarding was already finished.
	ErrAlreadyCompleted = errors.New("onboarding already completed")
)

// FormData accumulates the answers collected across steps. Fields stay zero
// until the step that owns them is saved.
type FormData struct {
	FullName           string               `json:"full_name,omitempty"`
	Bio                string               `json:"bio,omitempty"`
	Website            string               `json:"website,omitempty"`
	AvatarURL          string               `json:"avatar_url,omitempty"`
	FavoriteCategories []string             `json:"favorite_categories,omitempty"`
	Preferences        *profiles.Preferences `json:"preferences,omitempty"`
}

// Record is one saved step for one user. Saving the same step twice keeps a
// single row; the data and timestamp are overwritten.
type Record struct {
	UserID      string    `json:"user_id"`
	StepName    string    `json:"step_name"`
	Data        FormData  `json:"data"`
	CompletedAt time.Time `json:"completed_at"`
}

// Progress describes where a user stands in the flow.
type Progress struct {
	CurrentStep    string   `json:"current_step"`
	CompletedSteps []string `json:"completed_steps"`
	Data           FormData `json:"data"`
	Finished       bool     `json:"finished"`
}
