package audit

import (
	"context"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service applies listing defaults and bounds over the repository.
type Service struct {
	repo Repository
}

// NewService constructs a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns trail entries for the given filters, clamping the page size.
func (s *Service) List(ctx context.Context, f Filters) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return s.repo.List(ctx, f)
}
