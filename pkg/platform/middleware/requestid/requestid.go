// Package requestid assigns each request an ID for log correlation.
// An incoming X-Request-ID is honored so IDs survive proxy hops.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"idproof/pkg/requestcontext"
)

// Header is the request/response header carrying the request ID.
const Header = "X-Request-ID"

// Middleware injects a request ID into the context and echoes it on the
// response so clients can quote it in support requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
