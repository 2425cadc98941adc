package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. No write
// timeout: the blocking verify path awaits the provider, and bounding that
// wait is the caller's job.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
