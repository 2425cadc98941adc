package upload

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"idproof/internal/audit"
	"idproof/internal/objectstore"
	"idproof/internal/upload/metrics"
	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// MaxDocumentBytes caps a single document upload at 10 MiB.
const MaxDocumentBytes = 10 << 20

// MessageUploadFailed is the client-facing message for storage failures.
const MessageUploadFailed = "There was an error uploading your document. Please try again."

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/pdf": true,
}

// Submission is one document handed in by the client.
type Submission struct {
	FileName    string
	ContentType string
	// Size is the declared size in bytes; zero means unknown.
	Size int64
	Body io.Reader
}

// Stored describes an accepted document: where it lives and what was written.
type Stored struct {
	Ref    string
	Digest string
	Size   int64
}

// Service validates submissions and writes them to the object store. It never
// starts verification itself; a storage failure must leave the pipeline
// untouched, so the caller only proceeds on success.
type Service struct {
	store    objectstore.Store
	recorder *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(store objectstore.Store, recorder *audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
	}
}

// Submit validates and stores one document under {userID}/{fileName}.
// Resubmitting the same file name overwrites the previous document.
//
// Errors: CodeInvalidInput on validation failures, CodeStorageFailed when the
// write does not land.
func (s *Service) Submit(ctx context.Context, userID id.UserID, sub Submission) (Stored, error) {
	if err := validate(sub); err != nil {
		s.metrics.IncrementSubmissions("rejected")
		s.recorder.Record(ctx, audit.Event{
			UserID: userID,
			Action: audit.ActionSubmissionRejected,
			Metadata: map[string]string{
				"file_name": sub.FileName,
				"reason":    dErrors.MessageOf(err),
			},
		})
		return Stored{}, err
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return Stored{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize digest")
	}
	counter := &countingReader{r: io.TeeReader(sub.Body, hasher)}

	key := userID.String() + "/" + sub.FileName
	result, err := s.store.Put(ctx, objectstore.PutRequest{
		Key:          key,
		ContentType:  sub.ContentType,
		CacheControl: objectstore.NoCache,
		Body:         counter,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "document upload failed",
			"user_id", userID,
			"key", key,
			"error", err,
		)
		s.metrics.IncrementSubmissions("storage_failed")
		s.recorder.Record(ctx, audit.Event{
			UserID: userID,
			Action: audit.ActionSubmissionRejected,
			Metadata: map[string]string{
				"file_name": sub.FileName,
				"reason":    "storage_failed",
			},
		})
		return Stored{}, dErrors.Wrap(err, dErrors.CodeStorageFailed, MessageUploadFailed)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	s.metrics.IncrementSubmissions("accepted")
	s.metrics.ObserveDocumentSize(counter.n)

	s.recorder.Record(ctx, audit.Event{
		UserID: userID,
		Action: audit.ActionDocumentSubmitted,
		Metadata: map[string]string{
			"file_name":    sub.FileName,
			"content_type": sub.ContentType,
			"size_bytes":   strconv.FormatInt(counter.n, 10),
			"digest":       digest,
		},
	})

	s.logger.InfoContext(ctx, "document stored",
		"user_id", userID,
		"key", key,
		"size_bytes", counter.n,
	)

	return Stored{Ref: result.Ref, Digest: digest, Size: counter.n}, nil
}

func validate(sub Submission) error {
	if sub.FileName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "file name is required")
	}
	if strings.ContainsAny(sub.FileName, `/\`) || strings.Contains(sub.FileName, "..") {
		return dErrors.New(dErrors.CodeInvalidInput, "file name must not contain path separators")
	}
	if sub.Size > MaxDocumentBytes {
		return dErrors.New(dErrors.CodeInvalidInput, "document exceeds the 10MB size limit")
	}
	if !allowedContentTypes[sub.ContentType] {
		return dErrors.New(dErrors.CodeInvalidInput, "unsupported document type: use JPEG, PNG, or PDF")
	}
	if sub.Body == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "document body is required")
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
