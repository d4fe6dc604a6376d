package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollectorsAreIndependent(t *testing.T) {
	first := NewMetricsCollector("book-shelf", "v1", "abc")
	second := NewMetricsCollector("book-shelf", "v1", "abc")

	ops := first.NewCounter("graphql_operations_total", "ops", []string{"operation", "status"})
	second.NewCounter("graphql_operations_total", "ops", []string{"operation", "status"})

	ops.WithLabelValues("query", "success").Inc()
	if got := testutil.ToFloat64(ops.WithLabelValues("query", "success")); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestMetricsHandlerExposesHTTPMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mc := NewMetricsCollector("svc", "v1", "abc")

	r := gin.New()
	r.Use(mc.MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", mc.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ping", nil)
	r.ServeHTTP(w, req)

	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `svc_http_requests_total{endpoint="/ping",method="GET",status="200"} 1`) {
		t.Fatalf("expected ping request counter in output:\n%s", w.Body.String())
	}
}
