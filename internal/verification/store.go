package verification

import (
	"context"

	id "idproof/pkg/domain"
)

// AttemptStore tracks the current verification attempt per user.
//
// Save installs an attempt as the user's current one, superseding whatever is
// there. Finish applies a terminal state only when the stored attempt still
// carries the same attempt ID; a superseded attempt's terminal write is
// silently dropped, which gives concurrent submissions last-write-wins
// semantics without locking across the pipeline.
type AttemptStore interface {
	Save(ctx context.Context, attempt Attempt) error
	Finish(ctx context.Context, attempt Attempt) error
	Current(ctx context.Context, userID id.UserID) (Attempt, error)
}
