// Package objectstore abstracts the document storage collaborator. The core
// never reads documents back; it only needs a write that returns a
// dereferenceable reference for the verification provider.
package objectstore

import (
	"context"
	"io"

	dErrors "idproof/pkg/domain-errors"
)

// NoCache is the cache directive applied to every stored document so a
// resubmission is never served from a stale cache.
const NoCache = "no-cache, no-store, must-revalidate"

// ErrUnavailable keeps storage-level failures consistent across backends.
var ErrUnavailable = dErrors.New(dErrors.CodeStorageFailed, "object store unavailable")

// PutRequest describes a single upsert write. Writes to an existing key
// overwrite the previous object.
type PutRequest struct {
	Key          string
	ContentType  string
	CacheControl string
	Body         io.Reader
}

// PutResult carries the public reference to the stored object.
type PutResult struct {
	Ref string
}

// Store is interface-driven to keep the upload coordinator testable and to
// allow swapping in-memory and S3 persistence without rewiring business code.
type Store interface {
	Put(ctx context.Context, req PutRequest) (PutResult, error)
}
