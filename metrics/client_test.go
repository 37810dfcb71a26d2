package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pagelens/pagelens/config"
)

const labFixture = `{
	"lighthouseResult": {
		"categories": {
			"performance": {"score": 0.92},
			"accessibility": {"score": 0.81},
			"best-practices": {"score": 1.0},
			"seo": {"score": 0.77}
		},
		"audits": {
			"largest-contentful-paint": {"score": 0.9, "displayValue": "1.2 s"},
			"cumulative-layout-shift": {"score": 1.0, "displayValue": "0.01"}
		}
	}
}`

func testMetricsConfig(endpoint string) config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:  true,
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	}
}

func TestFetch_BothStrategies(t *testing.T) {
	var strategies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		strategies = append(strategies, r.URL.Query().Get("strategy"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(labFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), testMetricsConfig(srv.URL))
	m := c.Fetch(context.Background(), "https://example.com")
	if m == nil {
		t.Fatal("expected metrics, got nil")
	}
	if m.Mobile == nil || m.Desktop == nil {
		t.Fatalf("expected both strategies: %+v", m)
	}
	if m.Mobile.Performance != 0.92 {
		t.Errorf("performance score = %v", m.Mobile.Performance)
	}
	if len(strategies) != 2 {
		t.Errorf("expected 2 strategy requests, got %v", strategies)
	}

	lcp, ok := m.Mobile.Audits["largest-contentful-paint"]
	if !ok {
		t.Fatal("named audit missing")
	}
	if lcp.DisplayValue != "1.2 s" {
		t.Errorf("display value = %q", lcp.DisplayValue)
	}
}

func TestFetch_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("strategy") == "desktop" {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(labFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), testMetricsConfig(srv.URL))
	m := c.Fetch(context.Background(), "https://example.com")
	if m == nil {
		t.Fatal("one working strategy should still yield metrics")
	}
	if m.Mobile == nil {
		t.Error("mobile strategy should have succeeded")
	}
	if m.Desktop != nil {
		t.Error("failed desktop strategy should be nil")
	}
}

func TestFetch_TotalFailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), testMetricsConfig(srv.URL))
	if m := c.Fetch(context.Background(), "https://example.com"); m != nil {
		t.Errorf("expected nil on total failure, got %+v", m)
	}
}

func TestFetch_Disabled(t *testing.T) {
	cfg := testMetricsConfig("http://unreachable.invalid")
	cfg.Enabled = false

	c := NewClient(nil, cfg)
	if c.Enabled() {
		t.Error("client should report disabled")
	}
	if m := c.Fetch(context.Background(), "https://example.com"); m != nil {
		t.Error("disabled client must return nil without calling out")
	}
}
