package onboarding

// stepIndex returns a step's position in the flow, or -1.
func stepIndex(name string) int {
	for i, s := range Steps {
		if s == name {
			return i
		}
	}
	return -1
}

// NextStep returns the step after name, or empty when name is last.
func NextStep(name string) string {
	idx := stepIndex(name)
	if idx < 0 || idx == len(Steps)-1 {
		return ""
	}
	return Steps[idx+1]
}

// PrevStep returns the step before name, or empty when name is first.
func PrevStep(name string) string {
	idx := stepIndex(name)
	if idx <= 0 {
		return ""
	}
	return Steps[idx-1]
}

// currentStep derives the next step to show from the set of completed steps.
// Gaps do not advance the flow: the earliest unfinished step wins, so a user
// who somehow skipped ahead is sent back.
func currentStep(completed map[string]bool) string {
	for _, s := range Steps {
		if !completed[s] {
			return s
		}
	}
	return StepComplete
}

// canSave reports whether a step may be saved given the completed set. A step
// is allowed once every earlier step is done; resaving a finished step is
// always allowed.
func canSave(name string, completed map[string]bool) bool {
	idx := stepIndex(name)
	if idx < 0 {
		return false
	}
	for _, s := range Steps[:idx] {
		if !completed[s] {
			return false
		}
	}
	return true
}

// mergeData folds a step submission into the accumulated answers. Only the
// fields a step owns are taken, so a profile payload cannot clobber saved
// preferences.
func mergeData(acc FormData, step string, in FormData) FormData {
	switch step {
	case StepProfile:
		acc.FullName = in.FullName
		acc.Bio = in.Bio
		acc.Website = in.Website
		acc.AvatarURL = in.AvatarURL
	case StepPreferences:
		acc.FavoriteCategories = in.FavoriteCategories
		acc.Preferences = in.Preferences
	}
	return acc
}
