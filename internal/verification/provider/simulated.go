package provider

import (
	"context"
	"time"

	id "idproof/pkg/domain"
)

// Simulated mimics a vendor check with a fixed verdict after a configurable
// delay. It backs local development and tests; the delay keeps the async
// pipeline honest about the processing window clients observe.
type Simulated struct {
	latency      time.Duration
	verified     bool
	age          int
	documentKind id.DocumentKind
}

// NewSimulated builds a simulated provider. A zero latency answers
// immediately.
func NewSimulated(latency time.Duration, verified bool, age int, documentKind id.DocumentKind) *Simulated {
	return &Simulated{
		latency:      latency,
		verified:     verified,
		age:          age,
		documentKind: documentKind,
	}
}

// Verify waits out the configured latency, honoring context cancellation,
// then returns the configured verdict.
func (s *Simulated) Verify(ctx context.Context, _ id.UserID, _ string) (Verdict, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Verdict{
		Verified:     s.verified,
		Age:          s.age,
		DocumentKind: s.documentKind,
	}, nil
}
