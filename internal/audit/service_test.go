package audit

import (
	"context"
	"testing"
)

type stubRepo struct {
	lastFilters Filters
	entries     []Entry
}

func (s *stubRepo) List(ctx context.Context, f Filters) ([]Entry, error) {
	s.lastFilters = f
	return s.entries, nil
}

func TestListAppliesDefaultLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	if _, err := svc.List(context.Background(), Filters{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilters.Limit != defaultLimit {
		t.Fatalf("limit = %d, want %d", repo.lastFilters.Limit, defaultLimit)
	}
}

func TestListClampsOversizedLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	if _, err := svc.List(context.Background(), Filters{Limit: 100000}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilters.Limit != maxLimit {
		t.Fatalf("limit = %d, want %d", repo.lastFilters.Limit, maxLimit)
	}
}

func TestListPassesFiltersThrough(t *testing.T) {
	repo := &stubRepo{entries: []Entry{{ID: 1, Action: "role.change"}}}
	svc := NewService(repo)

	entries, err := svc.List(context.Background(), Filters{ActorID: "u1", Action: "role.change", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if repo.lastFilters.ActorID != "u1" || repo.lastFilters.Action != "role.change" {
		t.Fatalf("filters not passed through: %+v", repo.lastFilters)
	}
}
