package profile

import (
	"context"
	"time"

	id "idproof/pkg/domain"
)

// Profile is the verification-relevant slice of a user profile.
type Profile struct {
	UserID       id.UserID
	IsVerified   bool
	LastVerified *time.Time
}

// Store persists verification outcomes on user profiles.
//
// MarkVerified is idempotent and monotonic: a user who has been verified stays
// verified, and last_verified never moves backwards. Implementations must be
// safe for concurrent use.
type Store interface {
	MarkVerified(ctx context.Context, userID id.UserID, verifiedAt time.Time) error
	Get(ctx context.Context, userID id.UserID) (Profile, error)
}
