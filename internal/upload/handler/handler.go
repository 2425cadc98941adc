package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"idproof/internal/upload"
	"idproof/internal/verification"
	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
	"idproof/pkg/platform/httputil"
	mwauth "idproof/pkg/platform/middleware/auth"
	"idproof/pkg/requestcontext"
)

// multipart framing overhead on top of the document itself
const maxRequestBytes = upload.MaxDocumentBytes + 1<<20

// documentField is the multipart form field carrying the document.
const documentField = "document"

// Uploader stores a submitted document.
type Uploader interface {
	Submit(ctx context.Context, userID id.UserID, sub upload.Submission) (upload.Stored, error)
}

// Verifier starts the asynchronous verification pipeline.
type Verifier interface {
	Begin(ctx context.Context, userID id.UserID, documentRef string) (verification.Result, error)
}

// Handler handles the document upload endpoint.
type Handler struct {
	logger    *slog.Logger
	uploads   Uploader
	verifier  Verifier
	validator mwauth.Validator
}

// New creates a new upload Handler.
func New(uploads Uploader, verifier Verifier, validator mwauth.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		uploads:   uploads,
		verifier:  verifier,
		validator: validator,
	}
}

// Register registers the upload route with the chi router.
func (h *Handler) Register(r chi.Router) {
	uploadRouter := chi.NewRouter()
	uploadRouter.Use(mwauth.RequireAuth(h.validator, h.logger))
	uploadRouter.Post("/verify-identity/upload", h.handleUpload)

	r.Mount("/", uploadRouter)
}

type statusResponse struct {
	Status     id.VerificationStatus `json:"status"`
	Message    string                `json:"message"`
	VerifiedAt *time.Time            `json:"verified_at,omitempty"`
}

// handleUpload accepts exactly one multipart document, stores it, and kicks
// off verification. The response is the processing status; clients poll
// GET /verify-identity/status for the outcome.
//
// A storage failure answers in-band with a rejected body so clients handle it
// the same way as a failed verification. The pipeline is never started in
// that case.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		h.logger.ErrorContext(ctx, "user ID missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(upload.MaxDocumentBytes); err != nil {
		h.logger.WarnContext(ctx, "failed to parse multipart form",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "document exceeds the 10MB size limit"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart request"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[documentField]
	if len(files) != 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "exactly one document file is required"))
		return
	}
	header := files[0]

	file, err := header.Open()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open uploaded file",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable document file"))
		return
	}
	defer file.Close()

	stored, err := h.uploads.Submit(ctx, userID, upload.Submission{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeStorageFailed) {
			httputil.WriteJSON(w, http.StatusBadRequest, statusResponse{
				Status:  id.StatusRejected,
				Message: upload.MessageUploadFailed,
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	result, err := h.verifier.Begin(ctx, userID, stored.Ref)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start verification",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Status:  result.Status,
		Message: result.Message,
	})
}
