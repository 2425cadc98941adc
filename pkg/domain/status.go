package domain

import dErrors "idproof/pkg/domain-errors"

// VerificationStatus is the client-observable state of a verification attempt.
// Invariant: status advances pending -> processing -> approved|rejected; the
// terminal states only reset through a brand new submission.
type VerificationStatus string

const (
	StatusPending    VerificationStatus = "pending"
	StatusProcessing VerificationStatus = "processing"
	StatusApproved   VerificationStatus = "approved"
	StatusRejected   VerificationStatus = "rejected"
)

var validStatuses = map[VerificationStatus]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusApproved:   true,
	StatusRejected:   true,
}

// ParseVerificationStatus constructs a VerificationStatus from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := VerificationStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s VerificationStatus) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal reports whether no further automatic transition can occur.
func (s VerificationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation of the status.
func (s VerificationStatus) String() string {
	return string(s)
}
