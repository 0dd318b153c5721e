package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/wallhub/wallhub/internal/gallery"
	jobmetrics "github.com/wallhub/wallhub/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsRefresh recomputes per-profile contribution counters.
	TaskStatsRefresh = "stats:refresh"
	// TaskSessionsPurge clears expired session rows.
	TaskSessionsPurge = "sessions:purge"
)

// NewStatsRefreshTask constructs the stats refresh task.
func NewStatsRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskStatsRefresh, nil)
}

// NewSessionsPurgeTask constructs the session purge task.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsPurge, nil)
}

// StatsSource aggregates contribution counters from the gallery.
type StatsSource interface {
	UploaderStats(ctx context.Context) ([]gallery.UploaderStats, error)
}

// StatsSink writes the recomputed counters onto profiles.
type StatsSink interface {
	UpdateStats(ctx context.Context, userID string, uploads, downloads, votes int) error
}

// NewStatsRefreshHandler processes TaskStatsRefresh tasks. Per-profile write
// failures are logged and skipped so one bad row cannot stall the refresh.
func NewStatsRefreshHandler(logger *slog.Logger, source StatsSource, sink StatsSink) asynq.HandlerFunc {
	metrics := jobmetrics.NewMetrics(nil)
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskStatsRefresh)
		stats, err := source.UploaderStats(ctx)
		if err != nil {
			return tracker.End(err)
		}
		updated := 0
		for _, s := range stats {
			if err := sink.UpdateStats(ctx, s.UserID, s.Uploads, s.Downloads, s.Votes); err != nil {
				logger.Warn("stats refresh", slog.String("user_id", s.UserID), slog.Any("error", err))
				continue
			}
			updated++
		}
		logger.Info("stats refresh done", slog.Int("profiles", updated))
		return tracker.End(nil)
	}
}

// SessionPurger deletes expired session rows.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// NewSessionsPurgeHandler processes TaskSessionsPurge tasks.
func NewSessionsPurgeHandler(logger *slog.Logger, purger SessionPurger) asynq.HandlerFunc {
	metrics := jobmetrics.NewMetrics(nil)
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskSessionsPurge)
		purged, err := purger.DeleteExpiredSessions(ctx)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("sessions purged", slog.Int64("rows", purged))
		return tracker.End(nil)
	}
}
