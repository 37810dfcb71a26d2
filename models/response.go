package models

// AuditResponse is the response for POST /api/v1/audit.
type AuditResponse struct {
	// Success indicates whether the audit completed.
	Success bool `json:"success"`

	// Report is the reconciled audit report.
	Report *Report `json:"report,omitempty"`

	// Backend identifies the generation backend that produced the report.
	Backend string `json:"backend,omitempty"`

	// FetchMethod records how the page snapshot was captured.
	FetchMethod string `json:"fetch_method,omitempty"`

	// Screenshots carries captured visual artifacts as base64 strings
	// keyed by selector. Opaque to this service.
	Screenshots map[string]string `json:"screenshots,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// SnapshotResponse is the response for POST /api/v1/snapshot.
type SnapshotResponse struct {
	Success  bool         `json:"success"`
	Snapshot *Snapshot    `json:"snapshot,omitempty"`
	Timing   TimingInfo   `json:"timing"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// SnapshotMs is the time spent capturing the page.
	SnapshotMs int64 `json:"snapshot_ms,omitempty"`

	// MetricsMs is the time spent fetching external lab metrics.
	MetricsMs int64 `json:"metrics_ms,omitempty"`

	// GenerationMs is the time spent in the generation ladder.
	GenerationMs int64 `json:"generation_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Version string `json:"version"`

	// BrowserAvailable reports whether a browser binary could be resolved;
	// when false every snapshot uses the static-fetch path.
	BrowserAvailable bool `json:"browser_available"`
}
