package handler

import (
	"strings"
	"time"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// verifyRequest is the body of POST /verify-identity. The user comes from the
// bearer token; a userId in the body is accepted for compatibility but must
// match the authenticated caller.
type verifyRequest struct {
	UserID      string `json:"userId"`
	DocumentURL string `json:"documentUrl"`
}

func (r *verifyRequest) Prepare() error {
	r.DocumentURL = strings.TrimSpace(r.DocumentURL)
	if r.DocumentURL == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "documentUrl is required")
	}
	return nil
}

type statusResponse struct {
	Status       id.VerificationStatus `json:"status"`
	Message      string                `json:"message"`
	DocumentKind id.DocumentKind       `json:"document_kind,omitempty"`
	VerifiedAt   *time.Time            `json:"verified_at,omitempty"`
}
