package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "idproof/pkg/domain"
)

type failingSink struct{}

func (failingSink) Publish(context.Context, Event) error {
	return errors.New("broker unreachable")
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error {
	return errors.New("disk full")
}

func (failingStore) ListByUser(context.Context, id.UserID) ([]Event, error) {
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_Run(t *testing.T) {
	userID := id.UserID(uuid.New())

	t.Run("drains recorded events into the store", func(t *testing.T) {
		logger := discardLogger()
		store := NewInMemoryStore()
		recorder := NewRecorder(16, logger)
		worker := NewWorker(NewPublisher(store, nil, logger), recorder.Inbox(), logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan struct{})
		go func() {
			_ = worker.Run(ctx)
			close(done)
		}()

		recorder.Record(ctx, Event{UserID: userID, Action: ActionDocumentSubmitted})
		recorder.Record(ctx, Event{UserID: userID, Action: ActionVerificationApproved})

		require.Eventually(t, func() bool {
			events, err := store.ListByUser(ctx, userID)
			return err == nil && len(events) == 2
		}, time.Second, 5*time.Millisecond)

		events, err := store.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, ActionDocumentSubmitted, events[0].Action)
		require.Equal(t, ActionVerificationApproved, events[1].Action)
		require.NotEmpty(t, events[0].ID)
		require.False(t, events[0].Timestamp.IsZero())

		cancel()
		<-done
	})

	t.Run("a failing append does not stop the worker", func(t *testing.T) {
		logger := discardLogger()
		recorder := NewRecorder(16, logger)
		worker := NewWorker(NewPublisher(failingStore{}, nil, logger), recorder.Inbox(), logger)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		recorder.Record(ctx, Event{UserID: userID, Action: ActionDocumentSubmitted})
		recorder.Record(ctx, Event{UserID: userID, Action: ActionProviderVerdict})

		err := worker.Run(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		logger := discardLogger()
		recorder := NewRecorder(1, logger)
		worker := NewWorker(NewPublisher(NewInMemoryStore(), nil, logger), recorder.Inbox(), logger)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, worker.Run(ctx), context.Canceled)
	})
}

func TestPublisher_Emit(t *testing.T) {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	t.Run("a failing sink does not fail the emit", func(t *testing.T) {
		store := NewInMemoryStore()
		publisher := NewPublisher(store, failingSink{}, discardLogger())

		require.NoError(t, publisher.Emit(ctx, Event{UserID: userID, Action: ActionProfilePersisted}))

		events, err := store.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})

	t.Run("a failing store fails the emit", func(t *testing.T) {
		publisher := NewPublisher(failingStore{}, nil, discardLogger())

		require.Error(t, publisher.Emit(ctx, Event{UserID: userID, Action: ActionProfilePersisted}))
	})
}

func TestRecorder_Record(t *testing.T) {
	userID := id.UserID(uuid.New())

	t.Run("a full inbox drops instead of blocking", func(t *testing.T) {
		recorder := NewRecorder(1, discardLogger())
		ctx := context.Background()

		recorder.Record(ctx, Event{UserID: userID, Action: ActionDocumentSubmitted})

		done := make(chan struct{})
		go func() {
			recorder.Record(ctx, Event{UserID: userID, Action: ActionProviderVerdict})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full inbox")
		}
	})
}
