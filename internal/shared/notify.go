package shared

import (
	"context"
	"log/slog"
)

// Notification kinds surfaced to users.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
)

// Notifier delivers fire-and-forget user-visible outcomes. Implementations
// must never fail the calling operation.
type Notifier interface {
	Notify(ctx context.Context, kind, message string)
}

// FlashNotifier queues notifications as session flash messages for browser
// clients. Without a session in context the notification is dropped.
type FlashNotifier struct{}

// Notify queues the message on the request session.
func (FlashNotifier) Notify(ctx context.Context, kind, message string) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return
	}
	sess.AddFlash(FlashMessage{Kind: kind, Message: message})
}

// LogNotifier reports notifications through the logger. Used by the worker
// and anywhere no user session exists.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify writes the outcome to the log.
func (n LogNotifier) Notify(ctx context.Context, kind, message string) {
	if n.Logger == nil {
		return
	}
	if kind == NotifyError {
		n.Logger.Warn("notify", slog.String("kind", kind), slog.String("message", message))
		return
	}
	n.Logger.Info("notify", slog.String("kind", kind), slog.String("message", message))
}

var (
	_ Notifier = FlashNotifier{}
	_ Notifier = LogNotifier{}
)
