package models

// AuditRequest is the payload for POST /api/v1/audit.
type AuditRequest struct {
	// URL is the page to audit. Required.
	URL string `json:"url" binding:"required,url"`

	// AuditOptions selects which checklist items the report should cover.
	// Empty categories mean nothing to audit there, not an error.
	AuditOptions Checklist `json:"audit_options,omitempty"`

	// Model is the preferred generation backend. It is tried first;
	// the configured defaults follow as fallbacks.
	Model string `json:"model,omitempty"`

	// Timeout is the maximum duration in seconds for the snapshot capture.
	// Default: 60. Max: 180.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=180"`

	// MaxAge enables the response cache: a cached report younger than
	// MaxAge milliseconds is returned instead of re-auditing.
	MaxAge int `json:"max_age,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *AuditRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 60
	}
}

// SnapshotRequest is the payload for POST /api/v1/snapshot.
type SnapshotRequest struct {
	URL string `json:"url" binding:"required,url"`

	// Timeout is the maximum capture duration in seconds.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=180"`
}

// Defaults applies default values to unset fields.
func (r *SnapshotRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 60
	}
}
