package verification

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"idproof/internal/audit"
	"idproof/internal/profile"
	"idproof/internal/verification/metrics"
	"idproof/internal/verification/provider"
	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
	"idproof/pkg/requestcontext"
)

// Service orchestrates the verification pipeline: record the attempt, ask the
// provider, persist the profile on approval, settle the attempt.
//
// Failure reporting is in-band: pipeline failures surface to clients as a
// rejected Result with the generic rejection message, never as transport
// errors. The internal reason lands on the attempt, the audit trail, and
// metrics.
type Service struct {
	attempts AttemptStore
	profiles profile.Store
	provider provider.Provider
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewService(
	attempts AttemptStore,
	profiles profile.Store,
	prov provider.Provider,
	recorder *audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		attempts: attempts,
		profiles: profiles,
		provider: prov,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("idproof/internal/verification"),
	}
}

// Verify runs the full pipeline synchronously and returns the terminal
// outcome. The attempt still passes through processing so a concurrent status
// poll never observes pending during an active check.
func (s *Service) Verify(ctx context.Context, userID id.UserID, documentRef string) (Result, error) {
	attempt, err := s.start(ctx, userID, documentRef)
	if err != nil {
		return Result{}, err
	}
	return s.run(ctx, attempt), nil
}

// Begin starts the pipeline and returns immediately with the processing
// status. The pipeline continues on a context detached from the request so a
// client disconnect does not abort an in-flight check.
func (s *Service) Begin(ctx context.Context, userID id.UserID, documentRef string) (Result, error) {
	attempt, err := s.start(ctx, userID, documentRef)
	if err != nil {
		return Result{}, err
	}

	go s.run(context.WithoutCancel(ctx), attempt)

	return Result{Status: id.StatusProcessing, Message: MessageProcessing}, nil
}

// Status reports the caller's current verification state. A user who has
// never submitted a document is pending.
func (s *Service) Status(ctx context.Context, userID id.UserID) (Result, error) {
	attempt, err := s.attempts.Current(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Result{Status: id.StatusPending, Message: MessagePending}, nil
		}
		return Result{}, err
	}
	return Result{
		Status:       attempt.Status,
		Message:      MessageFor(attempt.Status),
		DocumentKind: attempt.DocumentKind,
		VerifiedAt:   attempt.VerifiedAt,
	}, nil
}

// start records a fresh processing attempt, superseding any in-flight one for
// the same user.
func (s *Service) start(ctx context.Context, userID id.UserID, documentRef string) (Attempt, error) {
	if documentRef == "" {
		return Attempt{}, dErrors.New(dErrors.CodeInvalidInput, "document reference cannot be empty")
	}

	now := requestcontext.Now(ctx)
	attempt := Attempt{
		ID:          id.NewAttemptID(),
		UserID:      userID,
		DocumentRef: documentRef,
		Status:      id.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return Attempt{}, dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to record verification attempt")
	}

	s.recorder.Record(ctx, audit.Event{
		UserID: userID,
		Action: audit.ActionDocumentSubmitted,
		Metadata: map[string]string{
			"attempt_id":   attempt.ID.String(),
			"document_ref": documentRef,
		},
	})

	s.logger.InfoContext(ctx, "verification started",
		"user_id", userID,
		"attempt_id", attempt.ID,
	)
	return attempt, nil
}

// run drives one attempt to a terminal state.
func (s *Service) run(ctx context.Context, attempt Attempt) Result {
	ctx, span := s.tracer.Start(ctx, "verification.run")
	defer span.End()

	verdict, err := s.checkProvider(ctx, attempt)
	if err != nil {
		s.logger.ErrorContext(ctx, "provider check failed",
			"user_id", attempt.UserID,
			"attempt_id", attempt.ID,
			"error", err,
		)
		return s.reject(ctx, attempt, ReasonProviderFailed)
	}

	attempt.Age = verdict.Age
	attempt.DocumentKind = verdict.DocumentKind

	s.recorder.Record(ctx, audit.Event{
		UserID: attempt.UserID,
		Action: audit.ActionProviderVerdict,
		Metadata: map[string]string{
			"attempt_id":    attempt.ID.String(),
			"verified":      strconv.FormatBool(verdict.Verified),
			"age":           strconv.Itoa(verdict.Age),
			"document_kind": verdict.DocumentKind.String(),
		},
	})

	if !verdict.Verified {
		return s.reject(ctx, attempt, ReasonProviderDenied)
	}

	verifiedAt := time.Now().UTC()
	if err := s.persistProfile(ctx, attempt, verifiedAt); err != nil {
		// The provider said yes but the profile write failed. The attempt is
		// rejected with an internal reason; the client sees the generic
		// rejection message and can retry.
		s.logger.ErrorContext(ctx, "profile persistence failed after positive verdict",
			"user_id", attempt.UserID,
			"attempt_id", attempt.ID,
			"error", err,
		)
		return s.reject(ctx, attempt, ReasonPersistenceFailed)
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:   attempt.UserID,
		Action:   audit.ActionProfilePersisted,
		Metadata: map[string]string{"attempt_id": attempt.ID.String()},
	})

	return s.approve(ctx, attempt, verifiedAt)
}

func (s *Service) checkProvider(ctx context.Context, attempt Attempt) (provider.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "provider.verify")
	defer span.End()

	start := time.Now()
	verdict, err := s.provider.Verify(ctx, attempt.UserID, attempt.DocumentRef)
	s.metrics.ObserveProviderLatency(time.Since(start))
	return verdict, err
}

func (s *Service) persistProfile(ctx context.Context, attempt Attempt, verifiedAt time.Time) error {
	ctx, span := s.tracer.Start(ctx, "profile.persist")
	defer span.End()

	return s.profiles.MarkVerified(ctx, attempt.UserID, verifiedAt)
}

func (s *Service) approve(ctx context.Context, attempt Attempt, verifiedAt time.Time) Result {
	attempt.Status = id.StatusApproved
	attempt.UpdatedAt = time.Now().UTC()
	attempt.VerifiedAt = &verifiedAt

	if err := s.attempts.Finish(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to settle approved attempt",
			"user_id", attempt.UserID,
			"attempt_id", attempt.ID,
			"error", err,
		)
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:   attempt.UserID,
		Action:   audit.ActionVerificationApproved,
		Metadata: map[string]string{"attempt_id": attempt.ID.String()},
	})

	s.metrics.IncrementOutcome(id.StatusApproved.String(), "")
	s.metrics.ObservePipelineLatency(time.Since(attempt.CreatedAt))

	s.logger.InfoContext(ctx, "verification approved",
		"user_id", attempt.UserID,
		"attempt_id", attempt.ID,
	)

	return Result{
		Status:       id.StatusApproved,
		Message:      MessageApproved,
		DocumentKind: attempt.DocumentKind,
		VerifiedAt:   &verifiedAt,
	}
}

func (s *Service) reject(ctx context.Context, attempt Attempt, reason string) Result {
	attempt.Status = id.StatusRejected
	attempt.Reason = reason
	attempt.UpdatedAt = time.Now().UTC()

	if err := s.attempts.Finish(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "failed to settle rejected attempt",
			"user_id", attempt.UserID,
			"attempt_id", attempt.ID,
			"error", err,
		)
	}

	s.recorder.Record(ctx, audit.Event{
		UserID: attempt.UserID,
		Action: audit.ActionVerificationRejected,
		Metadata: map[string]string{
			"attempt_id": attempt.ID.String(),
			"reason":     reason,
		},
	})

	s.metrics.IncrementOutcome(id.StatusRejected.String(), reason)
	s.metrics.ObservePipelineLatency(time.Since(attempt.CreatedAt))

	s.logger.InfoContext(ctx, "verification rejected",
		"user_id", attempt.UserID,
		"attempt_id", attempt.ID,
		"reason", reason,
	)

	return Result{Status: id.StatusRejected, Message: MessageRejected}
}
