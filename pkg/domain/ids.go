package domain

import (
	"github.com/google/uuid"

	dErrors "idproof/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a user ID from ever standing in
// for an attempt ID at compile time; parsing at trust boundaries enforces the
// invariant that IDs are valid, non-nil UUIDs.

// UserID identifies the authenticated caller. It is supplied by the auth
// layer, never generated here.
type UserID uuid.UUID

// AttemptID identifies a single verification attempt.
type AttemptID uuid.UUID

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id AttemptID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id AttemptID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders IDs as canonical UUID strings in JSON and text
// encodings.
func (id UserID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id AttemptID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *AttemptID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AttemptID(u)
	return nil
}

// NewAttemptID generates a fresh attempt identifier.
func NewAttemptID() AttemptID {
	return AttemptID(uuid.New())
}

// ParseUserID constructs a UserID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or nil.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseAttemptID constructs an AttemptID from external input.
func ParseAttemptID(s string) (AttemptID, error) {
	u, err := parseUUID(s, "attempt_id")
	return AttemptID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be the nil UUID")
	}
	return u, nil
}
