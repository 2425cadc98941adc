// Package provider abstracts the third-party identity verification service.
package provider

import (
	"context"

	id "idproof/pkg/domain"
)

// Verdict is the provider's answer for a submitted document.
type Verdict struct {
	Verified     bool            `json:"verified"`
	Age          int             `json:"age"`
	DocumentKind id.DocumentKind `json:"documentType"`
}

// Provider checks an identity document against an external service.
//
// A returned error means the check could not be completed; a Verdict with
// Verified=false means the check completed and the document was denied. The
// distinction matters for audit trails, not for the client-facing outcome.
type Provider interface {
	Verify(ctx context.Context, userID id.UserID, documentRef string) (Verdict, error)
}
