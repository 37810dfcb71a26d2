package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pagelens/pagelens/audit"
	"github.com/pagelens/pagelens/cache"
	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/llm"
	"github.com/pagelens/pagelens/metrics"
	"github.com/pagelens/pagelens/models"
	"github.com/pagelens/pagelens/prompt"
	"github.com/pagelens/pagelens/snapshot"
)

// newTestRouter wires the full pipeline with the browser disabled so the
// snapshot stage runs over the static-fetch path, plus a stub generation
// backend.
func newTestRouter(t *testing.T, llmURL string, apiKeys []string) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Browser: config.BrowserConfig{
			Disabled: true,
		},
		Snapshot: config.SnapshotConfig{
			CaptureTimeout: 30 * time.Second,
			MaxHTMLBytes:   512 * 1024,
			MaxTextBytes:   8 * 1024,
			MaxElements:    25,
		},
		Metrics: config.MetricsConfig{Enabled: false},
		LLM: config.LLMConfig{
			BaseURL:     llmURL,
			APIKey:      "test",
			Models:      []string{"stub-model"},
			MaxTokens:   1024,
			Temperature: 0.1,
			Timeout:     5 * time.Second,
		},
		Auth:      config.AuthConfig{Enabled: len(apiKeys) > 0, APIKeys: apiKeys},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		Cache:     config.CacheConfig{MaxEntries: 10},
	}

	orch := snapshot.NewOrchestrator(cfg.Browser, cfg.Snapshot)
	llmClient := llm.NewClient(nil, cfg.LLM)
	svc := audit.NewService(
		orch,
		metrics.NewClient(nil, cfg.Metrics),
		prompt.NewCompiler(),
		llm.NewReconciler(llmClient, cfg.LLM),
	)

	return NewRouter(svc, cfg, cache.New(cfg.Cache.MaxEntries), time.Now())
}

// newStubLLM serves a fixed report for any chat completion request.
func newStubLLM(t *testing.T, report string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": report}},
			},
		})
	}))
}

func newStubPage(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Stub page</title></head><body><h1>Hi</h1><p>Some content.</p></body></html>`))
	}))
}

func TestAuditEndpoint(t *testing.T) {
	page := newStubPage(t)
	defer page.Close()
	llmSrv := newStubLLM(t, `{"categories":[{"title":"SEO","items":[{"label":"Meta description","status":"fail","findings":"missing"}]}]}`)
	defer llmSrv.Close()

	router := newTestRouter(t, llmSrv.URL, nil)

	body, _ := json.Marshal(models.AuditRequest{
		URL: page.URL,
		AuditOptions: models.Checklist{
			{Key: models.CategorySEO, Label: "SEO", Items: []models.ChecklistItem{
				{ID: "meta", Label: "Meta description", Selected: true},
			}},
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp models.AuditResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("audit failed: %+v", resp.Error)
	}
	if resp.FetchMethod != "http" {
		t.Errorf("fetch method = %q, want http (browser disabled)", resp.FetchMethod)
	}
	if resp.Backend != "stub-model" {
		t.Errorf("backend = %q", resp.Backend)
	}
	if len(resp.Report.Categories) != 1 || resp.Report.Categories[0].Items[0].Status != models.StatusFail {
		t.Errorf("unexpected report: %+v", resp.Report)
	}
	if resp.Timing.TotalMs < 0 || resp.Timing.SnapshotMs < 0 {
		t.Errorf("bad timing: %+v", resp.Timing)
	}
}

func TestAuditEndpoint_InvalidInput(t *testing.T) {
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, nil)

	for name, body := range map[string]string{
		"missing url":      `{}`,
		"malformed json":   `{`,
		"bad url":          `{"url":"not a url"}`,
		"unknown category": `{"url":"https://example.com","audit_options":[{"key":"astrology"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp models.AuditResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("parse response: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
				t.Errorf("error = %+v, want %s", resp.Error, models.ErrCodeInvalidInput)
			}
		})
	}
}

func TestAuditEndpoint_CacheHit(t *testing.T) {
	page := newStubPage(t)
	defer page.Close()
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, nil)

	body, _ := json.Marshal(models.AuditRequest{URL: page.URL, MaxAge: 60_000})

	do := func() models.AuditResponse {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp models.AuditResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		return resp
	}

	if first := do(); first.CacheStatus != "miss" {
		t.Errorf("first call cache status = %q, want miss", first.CacheStatus)
	}
	if second := do(); second.CacheStatus != "hit" {
		t.Errorf("second call cache status = %q, want hit", second.CacheStatus)
	}
}

// Serving a hit must not write to the cached entry itself: per-request
// fields are stamped on a copy, so parallel hits on one key stay safe
// and each carries its own timing.
func TestAuditEndpoint_ConcurrentCacheHits(t *testing.T) {
	page := newStubPage(t)
	defer page.Close()
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, nil)

	body, _ := json.Marshal(models.AuditRequest{URL: page.URL, MaxAge: 60_000})

	do := func() (int, models.AuditResponse) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		var resp models.AuditResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Errorf("parse response: %v", err)
		}
		return w.Code, resp
	}

	if code, first := do(); code != http.StatusOK || first.CacheStatus != "miss" {
		t.Fatalf("warm-up call: status = %d, cache status = %q", code, first.CacheStatus)
	}

	const clients = 8
	results := make([]models.AuditResponse, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, resp := do()
			if code != http.StatusOK {
				t.Errorf("client %d: status = %d", i, code)
			}
			results[i] = resp
		}(i)
	}
	wg.Wait()

	for i, resp := range results {
		if resp.CacheStatus != "hit" {
			t.Errorf("client %d: cache status = %q, want hit", i, resp.CacheStatus)
		}
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	page := newStubPage(t)
	defer page.Close()
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, nil)

	body, _ := json.Marshal(models.SnapshotRequest{URL: page.URL})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.SnapshotResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Success || resp.Snapshot == nil {
		t.Fatalf("snapshot failed: %+v", resp.Error)
	}
	if resp.Snapshot.StructuredData.Title != "Stub page" {
		t.Errorf("title = %q", resp.Snapshot.StructuredData.Title)
	}
}

func TestHealthEndpoint_NoAuthRequired(t *testing.T) {
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, []string{"secret"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.BrowserAvailable {
		t.Error("browser disabled, should report unavailable")
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded without a browser", resp.Status)
	}
}

func TestAuditEndpoint_AuthRequired(t *testing.T) {
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, []string{"secret"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/audit", bytes.NewBufferString(`{"url":"https://example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	llmSrv := newStubLLM(t, `{"categories":[]}`)
	defer llmSrv.Close()
	router := newTestRouter(t, llmSrv.URL, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response missing generated X-Request-ID")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("X-Request-ID = %q, want caller-supplied", got)
	}
}
