package models

import "testing"

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pass", StatusPass},
		{"PASSED", StatusPass},
		{"ok", StatusPass},
		{"fail", StatusFail},
		{"Failed", StatusFail},
		{"warn", StatusWarning},
		{"needs-review", StatusWarning},
		{"n/a", StatusNotApplicable},
		{"Not Applicable", StatusNotApplicable},
		{"  pass  ", StatusPass},
		{"completely made up", StatusWarning},
		{"", StatusWarning},
	}

	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReportNormalize(t *testing.T) {
	r := &Report{Categories: []ReportCategory{
		{Title: "A", Items: []ReportItem{
			{Label: "x", Status: "PASSED"},
			{Label: "y", Status: "mystery"},
		}},
	}}

	r.Normalize()

	if r.Categories[0].Items[0].Status != StatusPass {
		t.Errorf("alias not normalized: %q", r.Categories[0].Items[0].Status)
	}
	if r.Categories[0].Items[1].Status != StatusWarning {
		t.Errorf("unknown status should become warning: %q", r.Categories[0].Items[1].Status)
	}
}
