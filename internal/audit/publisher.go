package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	id "idproof/pkg/domain"
	"idproof/pkg/requestcontext"
)

// Sink receives events beyond local persistence (e.g. a Kafka topic).
// A failing sink never fails the business operation.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

// NewPublisher constructs a Publisher. sink may be nil.
func NewPublisher(store Store, sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, sink: sink, logger: logger}
}

// Emit persists the event and forwards it to the sink best-effort.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
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

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"user_id", event.UserID,
				"error", err,
			)
		}
	}
	return nil
}

// List returns all events recorded for a user, oldest first.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}
