package audit

import (
	"context"
	"time"

	id "idproof/pkg/domain"
)

// Action names a verification lifecycle step worth an audit record.
type Action string

const (
	ActionDocumentSubmitted    Action = "document_submitted"
	ActionSubmissionRejected   Action = "submission_rejected"
	ActionProviderVerdict      Action = "provider_verdict"
	ActionProfilePersisted     Action = "profile_persisted"
	ActionVerificationApproved Action = "verification_approved"
	ActionVerificationRejected Action = "verification_rejected"
)

// Event is an append-only audit record. Metadata holds step-specific detail
// (document digest, rejection reason, provider document kind) as flat strings
// so every sink can serialize it without schema knowledge.
type Event struct {
	ID        string            `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	Action    Action            `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Device    string            `json:"device,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Store is append-only persistence for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
