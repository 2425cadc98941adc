package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the recorder inbox and hands them to the
// publisher. It keeps background processing testable without wiring queue
// implementations into services.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(publisher *Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. A failed append is logged and
// skipped; audit persistence must never take the service down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"user_id", event.UserID,
					"error", err,
				)
			}
		}
	}
}
