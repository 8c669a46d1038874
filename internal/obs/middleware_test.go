package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusRecorderCapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := NewStatusRecorder(rec)

	sr.WriteHeader(http.StatusTeapot)
	_, _ = sr.Write([]byte("short and stout"))

	if sr.Status() != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", sr.Status())
	}
	if sr.BytesWritten() != 15 {
		t.Fatalf("expected 15 bytes, got %d", sr.BytesWritten())
	}
}

func TestHTTPObsCountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("storefront_test", nil, reg)
	obs := HTTPObs{Metrics: metrics}

	handler := obs.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req = req.WithContext(WithRoutePattern(req.Context(), "/orders"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	count := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/orders", "201"))
	if count != 1 {
		t.Fatalf("expected one counted request, got %v", count)
	}
}

func TestRoutePatternFromContextEmpty(t *testing.T) {
	if got := RoutePatternFromContext(nil); got != "" {
		t.Fatalf("expected empty pattern, got %q", got)
	}
}
