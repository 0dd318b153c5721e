package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/wallhub/wallhub/internal/gallery"
)

type stubSource struct {
	stats []gallery.UploaderStats
	err   error
}

func (s *stubSource) UploaderStats(ctx context.Context) ([]gallery.UploaderStats, error) {
	return s.stats, s.err
}

type stubSink struct {
	written map[string][3]int
	failFor string
}

func (s *stubSink) UpdateStats(ctx context.Context, userID string, uploads, downloads, votes int) error {
	if userID == s.failFor {
		return errors.New("write failed")
	}
	if s.written == nil {
		s.written = make(map[string][3]int)
	}
	s.written[userID] = [3]int{uploads, downloads, votes}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatsRefreshWritesCounters(t *testing.T) {
	source := &stubSource{stats: []gallery.UploaderStats{
		{UserID: "u1", Uploads: 3, Downloads: 40, Votes: 7},
		{UserID: "u2", Uploads: 1, Downloads: 2, Votes: 0},
	}}
	sink := &stubSink{}

	handler := NewStatsRefreshHandler(discardLogger(), source, sink)
	if err := handler(context.Background(), NewStatsRefreshTask()); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := sink.written["u1"]; got != [3]int{3, 40, 7} {
		t.Fatalf("u1 counters = %v", got)
	}
	if got := sink.written["u2"]; got != [3]int{1, 2, 0} {
		t.Fatalf("u2 counters = %v", got)
	}
}

func TestStatsRefreshSkipsFailedRows(t *testing.T) {
	source := &stubSource{stats: []gallery.UploaderStats{
		{UserID: "u1", Uploads: 1},
		{UserID: "u2", Uploads: 2},
	}}
	sink := &stubSink{failFor: "u1"}

	handler := NewStatsRefreshHandler(discardLogger(), source, sink)
	if err := handler(context.Background(), NewStatsRefreshTask()); err != nil {
		t.Fatalf("one bad row must not fail the task: %v", err)
	}
	if _, ok := sink.written["u2"]; !ok {
		t.Fatal("remaining rows must still be written")
	}
}

func TestStatsRefreshSourceErrorRetries(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	handler := NewStatsRefreshHandler(discardLogger(), source, &stubSink{})

	if err := handler(context.Background(), NewStatsRefreshTask()); err == nil {
		t.Fatal("source failure must surface for retry")
	}
}

type stubPurger struct {
	purged int64
	err    error
}

func (s *stubPurger) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return s.purged, s.err
}

func TestSessionsPurge(t *testing.T) {
	handler := NewSessionsPurgeHandler(discardLogger(), &stubPurger{purged: 12})
	if err := handler(context.Background(), NewSessionsPurgeTask()); err != nil {
		t.Fatalf("handler: %v", err)
	}

	handler = NewSessionsPurgeHandler(discardLogger(), &stubPurger{err: errors.New("down")})
	if err := handler(context.Background(), NewSessionsPurgeTask()); err == nil {
		t.Fatal("store failure must surface for retry")
	}
}
