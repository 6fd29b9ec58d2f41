package obs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	recorder := NewStatusRecorder(rr)
	recorder.WriteHeader(http.StatusTeapot)
	if _, err := recorder.Write([]byte("short and stout")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if recorder.Status() != http.StatusTeapot {
		t.Fatalf("unexpected status %d", recorder.Status())
	}
	if recorder.BytesWritten() != int64(len("short and stout")) {
		t.Fatalf("unexpected bytes %d", recorder.BytesWritten())
	}
}

func TestHTTPObsCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("store", nil, reg)
	obs := HTTPObs{Metrics: metrics}

	handler := obs.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req = req.WithContext(WithRoutePattern(req.Context(), "/checkout"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/checkout", "201"))
	if count != 1 {
		t.Fatalf("expected one counted request, got %v", count)
	}
}

func TestRoutePatternRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/serum", nil)
	ctx := WithRoutePattern(req.Context(), "/products/{slug}")
	if got := RoutePattern(ctx); got != "/products/{slug}" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := RoutePattern(req.Context()); got != "" {
		t.Fatalf("expected empty pattern, got %q", got)
	}
}

func TestParseBucketsCSV(t *testing.T) {
	got := ParseBucketsCSV("5, 10, junk, -3, 25")
	want := []float64{5, 10, 25}
	if len(got) != len(want) {
		t.Fatalf("unexpected buckets %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected buckets %v", got)
		}
	}
}

func TestNewLoggerLevels(t *testing.T) {
	logger := NewLogger("json", "warn")
	var sb strings.Builder
	logger = logger.Output(&sb)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("visible")
	out := sb.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be suppressed at warn level: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %s", out)
	}
}
