package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idproof/internal/verification"
	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
	"idproof/pkg/platform/httputil"
	mwauth "idproof/pkg/platform/middleware/auth"
	"idproof/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	Verify(ctx context.Context, userID id.UserID, documentRef string) (verification.Result, error)
	Status(ctx context.Context, userID id.UserID) (verification.Result, error)
}

// Handler handles verification endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Service
	validator mwauth.Validator
}

// New creates a new verification Handler.
func New(service Service, validator mwauth.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	verifyRouter := chi.NewRouter()
	verifyRouter.Use(mwauth.RequireAuth(h.validator, h.logger))
	verifyRouter.Post("/verify-identity", h.handleVerify)
	verifyRouter.Get("/verify-identity/status", h.handleStatus)

	r.Mount("/", verifyRouter)
}

// handleVerify runs the pipeline synchronously for a document that is already
// stored. A rejected outcome is a 400 with the same body shape as success;
// clients branch on the status field, not on error envelopes.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.UserID != "" && req.UserID != userID.String() {
		h.logger.WarnContext(ctx, "body user does not match authenticated user",
			"request_id", requestID,
			"user_id", userID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId does not match the authenticated user"))
		return
	}

	result, err := h.service.Verify(ctx, userID, req.DocumentURL)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	writeResult(w, result)
}

// handleStatus reports the authenticated user's current verification state.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.service.Status(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "status lookup failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Status:       result.Status,
		Message:      result.Message,
		DocumentKind: result.DocumentKind,
		VerifiedAt:   result.VerifiedAt,
	})
}

// writeResult maps a terminal pipeline outcome onto the wire: approved is 200,
// rejected is 400, both with the in-band status body.
func writeResult(w http.ResponseWriter, result verification.Result) {
	status := http.StatusOK
	if result.Status == id.StatusRejected {
		status = http.StatusBadRequest
	}
	httputil.WriteJSON(w, status, statusResponse{
		Status:       result.Status,
		Message:      result.Message,
		DocumentKind: result.DocumentKind,
		VerifiedAt:   result.VerifiedAt,
	})
}
