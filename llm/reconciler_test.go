package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/models"
)

// newBackendStub serves an OpenAI-compatible endpoint whose behavior is
// keyed by the requested model name.
func newBackendStub(t *testing.T, respond func(model string) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		status, content := respond(req.Model)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"backend unavailable"}}`))
			return
		}
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
}

func testLLMConfig(baseURL string, defaults ...string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Models:      defaults,
		MaxTokens:   1024,
		Temperature: 0.1,
		Timeout:     5 * time.Second,
	}
}

func TestResolve_FallsThroughToWorkingBackend(t *testing.T) {
	var tried []string
	srv := newBackendStub(t, func(model string) (int, string) {
		tried = append(tried, model)
		if model == "good" {
			return http.StatusOK, `{"categories":[{"title":"SEO","items":[]}]}`
		}
		return http.StatusInternalServerError, ""
	})
	defer srv.Close()

	cfg := testLLMConfig(srv.URL, "bad-1", "bad-2", "good")
	r := NewReconciler(NewClient(srv.Client(), cfg), cfg)

	report, backend, err := r.Resolve(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if backend != "good" {
		t.Errorf("backend = %q, want %q", backend, "good")
	}
	if len(report.Categories) != 1 {
		t.Errorf("expected 1 category, got %d", len(report.Categories))
	}
	if len(tried) != 3 {
		t.Errorf("expected 3 sequential attempts, got %v", tried)
	}
}

func TestResolve_RequestedBackendWins(t *testing.T) {
	srv := newBackendStub(t, func(model string) (int, string) {
		return http.StatusOK, `{"categories":[]}`
	})
	defer srv.Close()

	cfg := testLLMConfig(srv.URL, "default-model")
	r := NewReconciler(NewClient(srv.Client(), cfg), cfg)

	_, backend, err := r.Resolve(context.Background(), "prompt", "preferred")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if backend != "preferred" {
		t.Errorf("backend = %q, want %q", backend, "preferred")
	}
}

func TestResolve_ParseFailureIsFatal(t *testing.T) {
	// Once a backend answers, its text is the winning attempt; garbage
	// that survives no repair must not silently burn through the ladder.
	srv := newBackendStub(t, func(model string) (int, string) {
		if model == "garbled" {
			return http.StatusOK, "this is not a report at all"
		}
		return http.StatusOK, `{"categories":[]}`
	})
	defer srv.Close()

	cfg := testLLMConfig(srv.URL, "garbled", "clean")
	r := NewReconciler(NewClient(srv.Client(), cfg), cfg)

	_, _, err := r.Resolve(context.Background(), "prompt", "")
	var auditErr *models.AuditError
	if !errors.As(err, &auditErr) || auditErr.Code != models.ErrCodeReportParse {
		t.Fatalf("expected %s, got %v", models.ErrCodeReportParse, err)
	}
}

func TestResolve_AllBackendsFail(t *testing.T) {
	srv := newBackendStub(t, func(model string) (int, string) {
		return http.StatusInternalServerError, ""
	})
	defer srv.Close()

	cfg := testLLMConfig(srv.URL, "bad-1", "bad-2")
	r := NewReconciler(NewClient(srv.Client(), cfg), cfg)

	_, _, err := r.Resolve(context.Background(), "prompt", "")
	if err == nil {
		t.Fatal("expected error when every backend fails")
	}

	var auditErr *models.AuditError
	if !errors.As(err, &auditErr) || auditErr.Code != models.ErrCodeLLMExhausted {
		t.Fatalf("expected %s, got %v", models.ErrCodeLLMExhausted, err)
	}

	var ladderErr *LadderError
	if !errors.As(err, &ladderErr) {
		t.Fatal("expected a wrapped LadderError")
	}
	if len(ladderErr.Attempts) != 2 {
		t.Errorf("expected 2 recorded attempts, got %d", len(ladderErr.Attempts))
	}
	if !strings.Contains(ladderErr.Error(), "bad-1") || !strings.Contains(ladderErr.Error(), "bad-2") {
		t.Errorf("attempt reasons missing from message: %q", ladderErr.Error())
	}
}

func TestResolve_NormalizesStatuses(t *testing.T) {
	srv := newBackendStub(t, func(model string) (int, string) {
		return http.StatusOK, `{"categories":[{"title":"A","items":[{"label":"x","status":"PASSED"},{"label":"y","status":"made-up"}]}]}`
	})
	defer srv.Close()

	cfg := testLLMConfig(srv.URL, "m")
	r := NewReconciler(NewClient(srv.Client(), cfg), cfg)

	report, _, err := r.Resolve(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	items := report.Categories[0].Items
	if items[0].Status != models.StatusPass {
		t.Errorf("alias not normalized: %q", items[0].Status)
	}
	if items[1].Status != models.StatusWarning {
		t.Errorf("unknown status should map to warning, got %q", items[1].Status)
	}
}
