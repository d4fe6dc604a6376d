package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy")
	}
}

func TestHealthChecker_DegradedAndUnhealthy(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("slow", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	if got := hc.CheckHealth().Status; got != StatusDegraded {
		t.Fatalf("expected degraded, got %q", got)
	}

	hc.AddCheck("broken", func() CheckResult { return CheckResult{Status: "weird"} })
	if got := hc.CheckHealth().Status; got != StatusUnhealthy {
		t.Fatalf("expected unknown status to count as unhealthy, got %q", got)
	}
	if names := hc.Names(); len(names) != 3 || names[0] != "broken" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestPingHealthCheck(t *testing.T) {
	if res := PingHealthCheck("store", &stubPinger{})(); res.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %q", res.Status)
	}

	res := PingHealthCheck("store", &stubPinger{err: errors.New("connection refused")})()
	if res.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %q", res.Status)
	}
	if res.Message != "store ping failed: connection refused" {
		t.Errorf("unexpected message: %q", res.Message)
	}

	if res := PingHealthCheck("kafka", nil)(); res.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy for nil target, got %q", res.Status)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	res := ConfigurationHealthCheck(map[string]string{"MONGO_URI": "", "PORT": "4000"})()
	if res.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy")
	}
	if res.Message != "Missing required configuration: [MONGO_URI]" {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestHealthHandlerStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("store", PingHealthCheck("store", &stubPinger{err: errors.New("down")}))

	r := gin.New()
	r.GET("/health", hc.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var body HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Checks["store"].Status != StatusUnhealthy {
		t.Fatalf("expected store check in body, got %#v", body.Checks)
	}
}
