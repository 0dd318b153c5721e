package onboarding

import "testing"

func TestStepOrder(t *testing.T) {
	if got := NextStep(StepWelcome); got != StepProfile {
		t.Fatalf("after welcome = %q", got)
	}
	if got := NextStep(StepPreferences); got != StepComplete {
		t.Fatalf("after preferences = %q", got)
	}
	if got := NextStep(StepComplete); got != "" {
		t.Fatalf("complete has no successor, got %q", got)
	}
	if got := PrevStep(StepWelcome); got != "" {
		t.Fatalf("welcome has no predecessor, got %q", got)
	}
	if got := PrevStep(StepProfile); got != StepWelcome {
		t.Fatalf("before profile = %q", got)
	}
	if got := NextStep("ghost"); got != "" {
		t.Fatalf("unknown step must have no successor, got %q", got)
	}
}

func TestCurrentStepEarliestUnfinishedWins(t *testing.T) {
	if got := currentStep(nil); got != StepWelcome {
		t.Fatalf("fresh flow starts at welcome, got %q", got)
	}
	// A gap sends the user back even when later steps are done.
	completed := map[string]bool{StepWelcome: true, StepPreferences: true}
	if got := currentStep(completed); got != StepProfile {
		t.Fatalf("gap must resolve to profile, got %q", got)
	}
	all := map[string]bool{StepWelcome: true, StepProfile: true, StepPreferences: true, StepComplete: true}
	if got := currentStep(all); got != StepComplete {
		t.Fatalf("finished flow resolves to complete, got %q", got)
	}
}

func TestCanSaveRequiresPredecessors(t *testing.T) {
	if !canSave(StepWelcome, nil) {
		t.Fatal("welcome is always saveable")
	}
	if canSave(StepPreferences, map[string]bool{StepWelcome: true}) {
		t.Fatal("preferences needs profile first")
	}
	if !canSave(StepProfile, map[string]bool{StepWelcome: true, StepProfile: true}) {
		t.Fatal("resaving a finished step is allowed")
	}
	if canSave("ghost", nil) {
		t.Fatal("unknown steps are never saveable")
	}
}

func TestMergeDataKeepsStepOwnership(t *testing.T) {
	acc := FormData{FullName: "Ada", Bio: "bio"}
	// A preferences submission carrying profile fields must not clobber them.
	merged := mergeData(acc, StepPreferences, FormData{FullName: "Mallory", FavoriteCategories: []string{"nature"}})
	if merged.FullName != "Ada" {
		t.Fatalf("full name clobbered: %q", merged.FullName)
	}
	if len(merged.FavoriteCategories) != 1 || merged.FavoriteCategories[0] != "nature" {
		t.Fatal("favorite categories not merged")
	}

	merged = mergeData(merged, StepProfile, FormData{FullName: "Grace"})
	if merged.FullName != "Grace" {
		t.Fatalf("profile step owns full name, got %q", merged.FullName)
	}
	if len(merged.FavoriteCategories) != 1 {
		t.Fatal("profile step must not touch categories")
	}
}
