package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"idproof/internal/audit"
	"idproof/internal/objectstore"
	"idproof/internal/profile"
	"idproof/internal/upload"
	"idproof/internal/verification"
	"idproof/internal/verification/provider"
	id "idproof/pkg/domain"
	mwauth "idproof/pkg/platform/middleware/auth"
	"idproof/pkg/testutil"
)

const goodToken = "good-token"

type staticValidator struct {
	userID id.UserID
}

func (v staticValidator) ValidateToken(token string) (*mwauth.Claims, error) {
	if token != goodToken {
		return nil, errors.New("invalid token")
	}
	return &mwauth.Claims{UserID: v.userID}, nil
}

type failingStore struct{}

func (failingStore) Put(context.Context, objectstore.PutRequest) (objectstore.PutResult, error) {
	return objectstore.PutResult{}, objectstore.ErrUnavailable
}

type env struct {
	router   http.Handler
	verifier *verification.Service
}

func newEnv(t *testing.T, store objectstore.Store) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(64, logger)

	verifier := verification.NewService(
		verification.NewInMemoryAttemptStore(),
		profile.NewInMemoryStore(),
		provider.NewSimulated(0, true, 25, id.DocumentKindPassport),
		recorder,
		nil,
		logger,
	)
	uploads := upload.NewService(store, recorder, nil, logger)

	r := chi.NewRouter()
	New(uploads, verifier, staticValidator{userID: testUserID}, logger).Register(r)
	return &env{router: r, verifier: verifier}
}

var testUserID = id.UserID(uuid.New())

type filePart struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, parts ...filePart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.name))
		header.Set("Content-Type", p.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/verify-identity/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+goodToken)
	return req
}

func jpegPart() filePart {
	return filePart{field: documentField, name: "passport.jpg", contentType: "image/jpeg", data: []byte("jpeg bytes")}
}

func TestHandler_Upload(t *testing.T) {
	t.Run("stores the document and answers processing", func(t *testing.T) {
		store := objectstore.NewInMemoryStore()
		e := newEnv(t, store)

		rr := testutil.DoRequest(e.router, multipartRequest(t, jpegPart()))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]any
		testutil.UnmarshalResponse(t, rr, &resp)
		require.Equal(t, "processing", resp["status"])
		require.Equal(t, verification.MessageProcessing, resp["message"])

		data, _, ok := store.Object(testUserID.String() + "/passport.jpg")
		require.True(t, ok)
		require.Equal(t, []byte("jpeg bytes"), data)

		require.Eventually(t, func() bool {
			result, err := e.verifier.Status(context.Background(), testUserID)
			return err == nil && result.Status == id.StatusApproved
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("requires authentication", func(t *testing.T) {
		e := newEnv(t, objectstore.NewInMemoryStore())

		req := multipartRequest(t, jpegPart())
		req.Header.Del("Authorization")

		rr := testutil.DoRequest(e.router, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a request without a document", func(t *testing.T) {
		e := newEnv(t, objectstore.NewInMemoryStore())

		rr := testutil.DoRequest(e.router, multipartRequest(t))
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp map[string]string
		testutil.UnmarshalResponse(t, rr, &resp)
		require.Equal(t, "invalid_input", resp["error"])
	})

	t.Run("rejects more than one document", func(t *testing.T) {
		e := newEnv(t, objectstore.NewInMemoryStore())

		rr := testutil.DoRequest(e.router, multipartRequest(t, jpegPart(), filePart{
			field: documentField, name: "second.png", contentType: "image/png", data: []byte("png"),
		}))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects an unsupported content type", func(t *testing.T) {
		e := newEnv(t, objectstore.NewInMemoryStore())

		rr := testutil.DoRequest(e.router, multipartRequest(t, filePart{
			field: documentField, name: "doc.gif", contentType: "image/gif", data: []byte("gif"),
		}))
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp map[string]string
		testutil.UnmarshalResponse(t, rr, &resp)
		require.Equal(t, "invalid_input", resp["error"])
	})

	t.Run("storage failure answers rejected and never starts the pipeline", func(t *testing.T) {
		e := newEnv(t, failingStore{})

		rr := testutil.DoRequest(e.router, multipartRequest(t, jpegPart()))
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp map[string]any
		testutil.UnmarshalResponse(t, rr, &resp)
		require.Equal(t, "rejected", resp["status"])
		require.Equal(t, upload.MessageUploadFailed, resp["message"])

		result, err := e.verifier.Status(context.Background(), testUserID)
		require.NoError(t, err)
		require.Equal(t, id.StatusPending, result.Status)
	})

	t.Run("non-multipart body is a bad request", func(t *testing.T) {
		e := newEnv(t, objectstore.NewInMemoryStore())

		req := httptest.NewRequest(http.MethodPost, "/verify-identity/upload", bytes.NewReader([]byte("{}")))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+goodToken)

		rr := testutil.DoRequest(e.router, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
