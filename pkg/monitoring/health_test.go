package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: "healthy"} })
	status := hc.CheckHealth()
	if status.Status != "healthy" {
		t.Fatalf("expected healthy")
	}
}

func TestHealthChecker_DegradedAndUnhealthy(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: "healthy"} })
	hc.AddCheck("slow", func() CheckResult { return CheckResult{Status: "degraded"} })
	if got := hc.CheckHealth().Status; got != "degraded" {
		t.Fatalf("expected degraded, got %q", got)
	}

	hc.AddCheck("down", func() CheckResult { return CheckResult{Status: "unhealthy"} })
	if got := hc.CheckHealth().Status; got != "unhealthy" {
		t.Fatalf("expected unhealthy, got %q", got)
	}
}

func TestHTTPServiceHealthCheck(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) }))
	defer s.Close()
	res := HTTPServiceHealthCheck("svc", s.URL)()
	if res.Status != "healthy" {
		t.Fatalf("expected healthy")
	}
}

func TestKafkaProducerHealthCheck_NilClient(t *testing.T) {
	res := KafkaProducerHealthCheck(nil)()
	if res.Status != "unhealthy" {
		t.Fatalf("expected unhealthy for nil client, got %q", res.Status)
	}
	if res.Message != "Kafka client is nil" {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	res := ConfigurationHealthCheck(map[string]string{"DATABASE_URL": "postgres://x"})()
	if res.Status != "healthy" {
		t.Fatalf("expected healthy")
	}
	res = ConfigurationHealthCheck(map[string]string{"DATABASE_URL": ""})()
	if res.Status != "unhealthy" {
		t.Fatalf("expected unhealthy for missing config")
	}
}
