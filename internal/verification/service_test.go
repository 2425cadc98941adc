package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"idproof/internal/audit"
	"idproof/internal/profile"
	"idproof/internal/verification/provider"
	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// ============================================================================
// Test fixtures
// ============================================================================

type erroringProvider struct{}

func (erroringProvider) Verify(context.Context, id.UserID, string) (provider.Verdict, error) {
	return provider.Verdict{}, dErrors.New(dErrors.CodeProviderFailed, "provider unreachable")
}

type failingProfileStore struct{}

func (failingProfileStore) MarkVerified(context.Context, id.UserID, time.Time) error {
	return errors.New("connection reset")
}

func (failingProfileStore) Get(context.Context, id.UserID) (profile.Profile, error) {
	return profile.Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
}

type fixture struct {
	service  *Service
	attempts *InMemoryAttemptStore
	profiles profile.Store
	recorder *audit.Recorder
}

func newFixture(t *testing.T, prov provider.Provider, profiles profile.Store) *fixture {
	t.Helper()

	if profiles == nil {
		profiles = profile.NewInMemoryStore()
	}
	attempts := NewInMemoryAttemptStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(64, logger)

	// metrics stay nil so parallel test packages do not fight over the
	// default prometheus registry
	return &fixture{
		service:  NewService(attempts, profiles, prov, recorder, nil, logger),
		attempts: attempts,
		profiles: profiles,
		recorder: recorder,
	}
}

func (f *fixture) recordedActions() []audit.Action {
	var actions []audit.Action
	for {
		select {
		case event := <-f.recorder.Inbox():
			actions = append(actions, event.Action)
		default:
			return actions
		}
	}
}

// ============================================================================
// Blocking verification
// ============================================================================

func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	docRef := "memory://" + userID.String() + "/passport.jpg"

	t.Run("approves on a positive verdict", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, true, 25, id.DocumentKindPassport), nil)

		result, err := f.service.Verify(ctx, userID, docRef)
		require.NoError(t, err)
		require.Equal(t, id.StatusApproved, result.Status)
		require.Equal(t, MessageApproved, result.Message)
		require.Equal(t, id.DocumentKindPassport, result.DocumentKind)
		require.NotNil(t, result.VerifiedAt)

		p, err := f.profiles.Get(ctx, userID)
		require.NoError(t, err)
		require.True(t, p.IsVerified)

		attempt, err := f.attempts.Current(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, id.StatusApproved, attempt.Status)
		require.Empty(t, attempt.Reason)

		require.Equal(t, []audit.Action{
			audit.ActionDocumentSubmitted,
			audit.ActionProviderVerdict,
			audit.ActionProfilePersisted,
			audit.ActionVerificationApproved,
		}, f.recordedActions())
	})

	t.Run("rejects on a negative verdict without touching the profile", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, false, 0, id.DocumentKindUnknown), nil)

		result, err := f.service.Verify(ctx, userID, docRef)
		require.NoError(t, err)
		require.Equal(t, id.StatusRejected, result.Status)
		require.Equal(t, MessageRejected, result.Message)
		require.Nil(t, result.VerifiedAt)

		_, err = f.profiles.Get(ctx, userID)
		require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

		attempt, err := f.attempts.Current(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, ReasonProviderDenied, attempt.Reason)
	})

	t.Run("provider failure rejects with the generic message", func(t *testing.T) {
		f := newFixture(t, erroringProvider{}, nil)

		result, err := f.service.Verify(ctx, userID, docRef)
		require.NoError(t, err)
		require.Equal(t, id.StatusRejected, result.Status)
		require.Equal(t, MessageRejected, result.Message)

		attempt, err := f.attempts.Current(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, ReasonProviderFailed, attempt.Reason)
	})

	t.Run("persistence failure after a positive verdict rejects", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, true, 25, id.DocumentKindPassport), failingProfileStore{})

		result, err := f.service.Verify(ctx, userID, docRef)
		require.NoError(t, err)
		require.Equal(t, id.StatusRejected, result.Status)
		require.Equal(t, MessageRejected, result.Message)

		attempt, err := f.attempts.Current(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, ReasonPersistenceFailed, attempt.Reason)

		require.Equal(t, []audit.Action{
			audit.ActionDocumentSubmitted,
			audit.ActionProviderVerdict,
			audit.ActionVerificationRejected,
		}, f.recordedActions())
	})

	t.Run("empty document reference is invalid input", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, true, 25, id.DocumentKindPassport), nil)

		_, err := f.service.Verify(ctx, userID, "")
		require.Error(t, err)
		require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// ============================================================================
// Async verification
// ============================================================================

func TestService_Begin(t *testing.T) {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	docRef := "memory://" + userID.String() + "/passport.jpg"

	t.Run("returns processing immediately and settles in the background", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(30*time.Millisecond, true, 25, id.DocumentKindPassport), nil)

		result, err := f.service.Begin(ctx, userID, docRef)
		require.NoError(t, err)
		require.Equal(t, id.StatusProcessing, result.Status)
		require.Equal(t, MessageProcessing, result.Message)

		status, err := f.service.Status(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, id.StatusProcessing, status.Status)

		require.Eventually(t, func() bool {
			status, err := f.service.Status(ctx, userID)
			return err == nil && status.Status == id.StatusApproved
		}, 2*time.Second, 10*time.Millisecond)

		p, err := f.profiles.Get(ctx, userID)
		require.NoError(t, err)
		require.True(t, p.IsVerified)
	})

	t.Run("survives caller cancellation", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(30*time.Millisecond, true, 25, id.DocumentKindPassport), nil)

		reqCtx, cancel := context.WithCancel(ctx)
		_, err := f.service.Begin(reqCtx, userID, docRef)
		require.NoError(t, err)
		cancel()

		require.Eventually(t, func() bool {
			status, err := f.service.Status(ctx, userID)
			return err == nil && status.Status == id.StatusApproved
		}, 2*time.Second, 10*time.Millisecond)
	})
}

// ============================================================================
// Status polling
// ============================================================================

func TestService_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("never-submitted user is pending", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, true, 25, id.DocumentKindPassport), nil)

		result, err := f.service.Status(ctx, id.UserID(uuid.New()))
		require.NoError(t, err)
		require.Equal(t, id.StatusPending, result.Status)
		require.Equal(t, MessagePending, result.Message)
	})

	t.Run("reports the terminal state with verified_at", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, true, 25, id.DocumentKindPassport), nil)
		userID := id.UserID(uuid.New())

		_, err := f.service.Verify(ctx, userID, "memory://doc")
		require.NoError(t, err)

		result, err := f.service.Status(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, id.StatusApproved, result.Status)
		require.Equal(t, MessageApproved, result.Message)
		require.NotNil(t, result.VerifiedAt)
	})

	t.Run("resubmission supersedes a rejected attempt", func(t *testing.T) {
		f := newFixture(t, provider.NewSimulated(0, false, 0, id.DocumentKindUnknown), nil)
		userID := id.UserID(uuid.New())

		_, err := f.service.Verify(ctx, userID, "memory://doc")
		require.NoError(t, err)

		approved := newFixtureWithAttempts(t, f.attempts, provider.NewSimulated(0, true, 25, id.DocumentKindPassport))
		result, err := approved.Verify(ctx, userID, "memory://doc-2")
		require.NoError(t, err)
		require.Equal(t, id.StatusApproved, result.Status)

		status, err := approved.Status(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, id.StatusApproved, status.Status)
	})
}

func newFixtureWithAttempts(t *testing.T, attempts *InMemoryAttemptStore, prov provider.Provider) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(attempts, profile.NewInMemoryStore(), prov, audit.NewRecorder(64, logger), nil, logger)
}
