package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"idproof/pkg/requestcontext"
)

// Recorder is the non-blocking front door services use to emit audit events.
// Request-scoped metadata is captured at Record time (before the request
// context dies); the worker persists events off the hot path. A full inbox
// drops the event with a log line rather than stalling a verification.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewRecorder creates a Recorder with the given inbox capacity.
func NewRecorder(capacity int, logger *slog.Logger) *Recorder {
	return &Recorder{
		inbox:  make(chan Event, capacity),
		logger: logger,
	}
}

// Record enqueues an event, stamping it with request-scoped metadata.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}

	select {
	case r.inbox <- event:
	default:
		if r.logger != nil {
			r.logger.WarnContext(ctx, "audit inbox full, dropping event",
				"action", event.Action,
				"user_id", event.UserID,
			)
		}
	}
}

// Inbox exposes the receive side for the worker.
func (r *Recorder) Inbox() <-chan Event {
	return r.inbox
}
