package security

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddleware(t *testing.T) {
	mw := Headers{Enabled: true, HSTS: true, HSTSSubdomains: true}
	handler := mw.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "https://shop.example.com/", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	headers := rr.Result().Header
	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff, got %q", got)
	}
	hsts := headers.Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "includeSubDomains") {
		t.Fatalf("expected hsts with subdomains, got %q", hsts)
	}
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	handler := Headers{}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://shop.example.com/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "" {
		t.Fatal("expected no headers when disabled")
	}
}

func TestBodyLimitPassThrough(t *testing.T) {
	var captured string
	handler := BodyLimit{MaxBytes: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("payload")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured != "payload" {
		t.Fatalf("expected body to survive the check, got %q", captured)
	}
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	handler := BodyLimit{MaxBytes: 4}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("oversized")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	handler := BodyLimit{MaxBytes: 4}.Middleware(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("abc"))
	req.ContentLength = 1 << 20
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from declared length, got %d", rr.Code)
	}
}
