// Package httptransport assembles the HTTP surface: global middleware, CORS,
// health and metrics endpoints, and the module routers.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idproof/pkg/platform/middleware/metadata"
	"idproof/pkg/platform/middleware/requestid"
	"idproof/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by module handlers that attach their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the global middleware chain and mounts every module router.
// Order matters: the request ID and timestamp must exist before anything logs
// or records audit events.
func NewRouter(logger *slog.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}

	return r
}
