package prompt

import (
	"strings"
	"testing"

	"github.com/pagelens/pagelens/models"
)

func minimalSnapshot() *models.Snapshot {
	return &models.Snapshot{
		URL:         "https://example.com",
		FetchMethod: "http",
		HTML:        "<html><head><title>Example</title></head><body><p>Some page text here.</p></body></html>",
		StructuredData: models.StructuredData{
			Title:       "Example",
			H1:          []string{"Welcome"},
			TextContent: "Some page text here.",
		},
	}
}

func sampleChecklist() models.Checklist {
	return models.Checklist{
		{
			Key:   models.CategoryAccessibility,
			Label: "Accessibility",
			Items: []models.ChecklistItem{
				{ID: "contrast", Label: "Color contrast", Selected: true},
				{ID: "alt", Label: "Alt text", Selected: false},
			},
		},
		{
			Key:   models.CategorySEO,
			Label: "SEO",
			Items: []models.ChecklistItem{
				{ID: "meta", Label: "Meta description", Selected: false},
			},
		},
	}
}

func TestCompile_Deterministic(t *testing.T) {
	c := NewCompiler()
	snap := minimalSnapshot()
	checklist := sampleChecklist()

	a := c.Compile("https://example.com", snap, checklist)
	b := c.Compile("https://example.com", snap, checklist)
	if a != b {
		t.Error("identical inputs produced different prompts")
	}
}

func TestCompile_OmitsEmptyCategories(t *testing.T) {
	c := NewCompiler()
	out := c.Compile("https://example.com", minimalSnapshot(), sampleChecklist())

	if !strings.Contains(out, "### Accessibility") {
		t.Error("category with selected items missing from prompt")
	}
	if strings.Contains(out, "### SEO") {
		t.Error("category with no selected items must be omitted entirely")
	}
	if strings.Contains(out, "Alt text") {
		t.Error("unselected item leaked into prompt")
	}
}

func TestCompile_EmptySelection(t *testing.T) {
	c := NewCompiler()
	out := c.Compile("https://example.com", minimalSnapshot(), models.Checklist{})

	if !strings.Contains(out, "No checklist items were selected") {
		t.Error("empty selection should be stated explicitly")
	}
}

func TestCompile_OverrideInstruction(t *testing.T) {
	checklist := models.Checklist{
		{
			Key:   models.CategoryUsability,
			Label: "Usability",
			Items: []models.ChecklistItem{
				{ID: "nav", Label: "Navigation", Selected: true, Instruction: "Focus on the mobile menu only."},
			},
		},
	}

	c := NewCompiler()
	out := c.Compile("https://example.com", minimalSnapshot(), checklist)

	if !strings.Contains(out, "Priority instruction") {
		t.Error("override instruction not marked as priority")
	}
	if !strings.Contains(out, "Focus on the mobile menu only.") {
		t.Error("override instruction text missing")
	}
	if !strings.Contains(out, `"Navigation"`) {
		t.Error("override instruction not anchored to its item label")
	}
}

func TestCompile_UnavailableSections(t *testing.T) {
	// A static-fetch snapshot has no rendered evidence; each section must
	// say so rather than silently disappear.
	c := NewCompiler()
	out := c.Compile("https://example.com", minimalSnapshot(), sampleChecklist())

	for _, section := range []string{
		"## Desktop style analysis",
		"## 320px reflow test",
		"## 200% zoom test",
		"## Mobile rendering",
		"## Lab metrics",
	} {
		if !strings.Contains(out, section) {
			t.Errorf("section header %q missing", section)
		}
	}

	if strings.Count(out, "analyze from static content only.") < 4 {
		t.Error("missing unavailable-evidence sentences for absent sections")
	}
}

func TestCompile_OutputContract(t *testing.T) {
	c := NewCompiler()
	out := c.Compile("https://example.com", minimalSnapshot(), sampleChecklist())

	for _, want := range []string{
		"exactly one JSON object",
		`"pass", "fail", "warning", "not_applicable"`,
		"Do not emit trailing commas.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output contract missing %q", want)
		}
	}
}

func TestCompile_ReflowAndZoomFacts(t *testing.T) {
	snap := minimalSnapshot()
	snap.ReflowTest = &models.ReflowTest{
		ViewportWidth: 320,
		ScrollWidth:   980,
		ClientWidth:   320,
		HasOverflow:   true,
	}
	snap.ZoomTest = &models.ZoomTest{
		WidthBefore:          1366,
		WidthAfter:           1366,
		ScrollWidthAfter:     2732,
		OverflowAfterZoom:    true,
		MeetsZoomRequirement: true,
	}

	c := NewCompiler()
	out := c.Compile("https://example.com", snap, sampleChecklist())

	if !strings.Contains(out, "320") || !strings.Contains(out, "980") {
		t.Error("reflow measurements missing from prompt")
	}
	if strings.Contains(out, "Reflow data unavailable") {
		t.Error("reflow fallback emitted despite available data")
	}
}
