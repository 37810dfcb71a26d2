package models

import "strings"

// Report is the reconciled audit output. It is created only from a
// structurally valid parse of the model's response, never assembled
// piecemeal from a parse that failed repair.
type Report struct {
	Categories []ReportCategory `json:"categories"`
}

// ReportCategory is one ordered group of audit findings.
type ReportCategory struct {
	Title string       `json:"title"`
	Items []ReportItem `json:"items"`
}

// ReportItem is one audited checklist item with its verdict.
type ReportItem struct {
	Label           string   `json:"label"`
	Status          string   `json:"status"`
	Findings        string   `json:"findings,omitempty"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Report item status vocabulary.
const (
	StatusPass          = "pass"
	StatusFail          = "fail"
	StatusWarning       = "warning"
	StatusNotApplicable = "not_applicable"
)

// statusAliases maps common model spellings onto the canonical vocabulary.
var statusAliases = map[string]string{
	"pass":           StatusPass,
	"passed":         StatusPass,
	"ok":             StatusPass,
	"good":           StatusPass,
	"fail":           StatusFail,
	"failed":         StatusFail,
	"failing":        StatusFail,
	"error":          StatusFail,
	"warning":        StatusWarning,
	"warn":           StatusWarning,
	"partial":        StatusWarning,
	"needs_review":   StatusWarning,
	"not_applicable": StatusNotApplicable,
	"n/a":            StatusNotApplicable,
	"na":             StatusNotApplicable,
	"not applicable": StatusNotApplicable,
}

// NormalizeStatus folds a free-text status onto the fixed vocabulary.
// Unknown values become "warning" so the report never carries a status
// outside the enum.
func NormalizeStatus(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if canonical, ok := statusAliases[key]; ok {
		return canonical
	}
	return StatusWarning
}

// Normalize rewrites every item status onto the fixed vocabulary in place.
func (r *Report) Normalize() {
	for ci := range r.Categories {
		for ii := range r.Categories[ci].Items {
			item := &r.Categories[ci].Items[ii]
			item.Status = NormalizeStatus(item.Status)
		}
	}
}
