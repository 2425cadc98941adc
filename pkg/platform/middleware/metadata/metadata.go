// Package metadata extracts client IP, User-Agent, and a parsed device
// description from the request for use in logs and audit events.
package metadata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"idproof/pkg/requestcontext"
)

// ClientMetadata adds client IP, raw User-Agent, and a human-readable device
// description to the context. Apply early in the chain so everything
// downstream sees the values.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		ua := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, ua, DescribeDevice(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeDevice renders a User-Agent as "Browser Version / OS" for audit
// events. Returns empty for an empty User-Agent.
func DescribeDevice(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if name == "" {
		return ua
	}
	desc := name
	if version != "" {
		desc = fmt.Sprintf("%s %s", name, version)
	}
	if os := parsed.OS(); os != "" {
		desc = fmt.Sprintf("%s / %s", desc, os)
	}
	return desc
}

// ClientIPFromRequest extracts the real client IP, handling proxies and load
// balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" (IPv4) or "[::1]:port" (IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}
	return ""
}
