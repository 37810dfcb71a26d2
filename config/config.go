package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Snapshot  SnapshotConfig
	Metrics   MetricsConfig
	LLM       LLMConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser process launched per capture.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Disabled forces the static-fetch path; no browser is ever launched.
	Disabled bool // default: false
}

// SnapshotConfig controls the capture pipeline.
type SnapshotConfig struct {
	// CaptureTimeout is the hard deadline for one full capture.
	CaptureTimeout time.Duration // default: 90s

	// NetworkIdleTimeout bounds the primary "network idle" wait before
	// falling back to the DOM-stable wait.
	NetworkIdleTimeout time.Duration // default: 10s

	// SettleDelay is the fixed pause after load and after viewport changes.
	SettleDelay time.Duration // default: 1s

	// MaxHTMLBytes caps the stored page markup.
	MaxHTMLBytes int // default: 512 KiB

	// MaxTextBytes caps the trimmed body text in the content summary.
	MaxTextBytes int // default: 8 KiB

	// MaxElements is the per-category index cutoff for the style probe.
	MaxElements int // default: 25

	// Screenshots toggles full-page and per-selector screenshot capture.
	Screenshots bool // default: true
}

// MetricsConfig controls the external lab-metrics client.
type MetricsConfig struct {
	// Enabled toggles the metrics fetch. When false the audit runs
	// without external metrics, never treated as a failure.
	Enabled bool // default: false

	// Endpoint is the lab API base URL (PageSpeed-compatible).
	Endpoint string

	// APIKey is the lab API key, if the endpoint requires one.
	APIKey string

	// Timeout bounds the metrics call for both strategies together.
	Timeout time.Duration // default: 30s
}

// LLMConfig controls the generation backend ladder.
type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey authenticates against the generation API.
	APIKey string

	// Models is the default backend ladder, tried in order after the
	// caller's requested model.
	Models []string // default: ["gpt-4o-mini", "gpt-4o"]

	// MaxTokens is the output-token ceiling per attempt.
	MaxTokens int // default: 4096

	// Temperature is the fixed sampling temperature for every attempt.
	Temperature float64 // default: 0.1

	// Timeout bounds a single generation attempt.
	Timeout time.Duration // default: 120s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the audit response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PAGELENS_HOST", "0.0.0.0"),
			Port: envIntOr("PAGELENS_PORT", 8080),
			Mode: envOr("PAGELENS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PAGELENS_HEADLESS", true),
			NoSandbox:  envBoolOr("PAGELENS_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PAGELENS_BROWSER_BIN"),
			Disabled:   envBoolOr("PAGELENS_BROWSER_DISABLED", false),
		},
		Snapshot: SnapshotConfig{
			CaptureTimeout:     envDurationOr("PAGELENS_CAPTURE_TIMEOUT", 90*time.Second),
			NetworkIdleTimeout: envDurationOr("PAGELENS_IDLE_TIMEOUT", 10*time.Second),
			SettleDelay:        envDurationOr("PAGELENS_SETTLE_DELAY", time.Second),
			MaxHTMLBytes:       envIntOr("PAGELENS_MAX_HTML_BYTES", 512*1024),
			MaxTextBytes:       envIntOr("PAGELENS_MAX_TEXT_BYTES", 8*1024),
			MaxElements:        envIntOr("PAGELENS_MAX_ELEMENTS", 25),
			Screenshots:        envBoolOr("PAGELENS_SCREENSHOTS", true),
		},
		Metrics: MetricsConfig{
			Enabled:  envBoolOr("PAGELENS_METRICS_ENABLED", false),
			Endpoint: envOr("PAGELENS_METRICS_ENDPOINT", "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"),
			APIKey:   os.Getenv("PAGELENS_METRICS_API_KEY"),
			Timeout:  envDurationOr("PAGELENS_METRICS_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     envOr("PAGELENS_LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      os.Getenv("PAGELENS_LLM_API_KEY"),
			Models:      envSliceOr("PAGELENS_LLM_MODELS", []string{"gpt-4o-mini", "gpt-4o"}),
			MaxTokens:   envIntOr("PAGELENS_LLM_MAX_TOKENS", 4096),
			Temperature: envFloatOr("PAGELENS_LLM_TEMPERATURE", 0.1),
			Timeout:     envDurationOr("PAGELENS_LLM_TIMEOUT", 120*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PAGELENS_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PAGELENS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PAGELENS_RATE_RPS", 1.0),
			Burst:             envIntOr("PAGELENS_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("PAGELENS_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("PAGELENS_LOG_LEVEL", "info"),
			Format: envOr("PAGELENS_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
