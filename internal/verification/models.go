package verification

import (
	"time"

	id "idproof/pkg/domain"
)

// Client-facing messages. These are part of the API contract and must not
// leak internal failure detail.
const (
	MessageApproved   = "Your identity has been verified successfully!"
	MessageRejected   = "Identity verification failed. Please try again."
	MessageProcessing = "Your identity document is being verified. This usually takes 1-2 minutes."
	MessagePending    = "Submit an identity document to begin verification."
)

// Internal rejection reasons, recorded on attempts and audit events but never
// returned to clients.
const (
	ReasonProviderDenied    = "provider_denied"
	ReasonProviderFailed    = "provider_failed"
	ReasonPersistenceFailed = "persistence_failed"
)

// Attempt tracks one verification pipeline run for a user. Each submission
// creates a fresh attempt; a newer attempt supersedes any in-flight one.
type Attempt struct {
	ID          id.AttemptID          `json:"id"`
	UserID      id.UserID             `json:"user_id"`
	DocumentRef string                `json:"document_ref"`
	Status      id.VerificationStatus `json:"status"`
	Reason      string                `json:"reason,omitempty"`
	// Advisory provider metadata, for display only. The verdict never
	// depends on these.
	Age          int             `json:"age,omitempty"`
	DocumentKind id.DocumentKind `json:"document_kind,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
}

// Result is what callers of the service see: the attempt status plus the
// client-facing message for it.
type Result struct {
	Status       id.VerificationStatus
	Message      string
	DocumentKind id.DocumentKind
	VerifiedAt   *time.Time
}

// MessageFor maps a status to its client-facing message.
func MessageFor(status id.VerificationStatus) string {
	switch status {
	case id.StatusApproved:
		return MessageApproved
	case id.StatusRejected:
		return MessageRejected
	case id.StatusProcessing:
		return MessageProcessing
	default:
		return MessagePending
	}
}
