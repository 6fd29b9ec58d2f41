package security

import (
	"net/http"
	"strconv"
)

// Headers sets baseline security headers on every response.
type Headers struct {
	Enabled        bool
	HSTS           bool
	HSTSMaxAge     int
	HSTSSubdomains bool
	FrameAncestors string
	ReferrerPolicy string
}

// Middleware attaches the configured headers before the next handler runs.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		frame := h.FrameAncestors
		if frame == "" {
			frame = "DENY"
		}
		headers.Set("X-Frame-Options", frame)
		referrer := h.ReferrerPolicy
		if referrer == "" {
			referrer = "no-referrer"
		}
		headers.Set("Referrer-Policy", referrer)
		headers.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if h.HSTS && r.TLS != nil {
			maxAge := h.HSTSMaxAge
			if maxAge <= 0 {
				maxAge = 31536000
			}
			value := "max-age=" + strconv.Itoa(maxAge)
			if h.HSTSSubdomains {
				value += "; includeSubDomains"
			}
			headers.Set("Strict-Transport-Security", value)
		}
		next.ServeHTTP(w, r)
	})
}
