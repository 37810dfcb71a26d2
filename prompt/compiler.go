// Package prompt renders a page snapshot and the caller's audit checklist
// into one natural-language task description for the generation backend.
// Compilation is pure and deterministic given identical inputs.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/pagelens/pagelens/models"
)

// maxContentBytes bounds the Markdown content section of the prompt.
const maxContentBytes = 12 * 1024

// Compiler holds the reusable Markdown converter. Safe for concurrent use.
type Compiler struct {
	mdConverter *converter.Converter
}

// NewCompiler initialises a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{mdConverter: newMarkdownConverter()}
}

// Compile renders the full task description: page identity and content,
// the conditional evidence sections (each with an explicit "unavailable"
// sentence when its source is absent, so the model is never silently
// missing context), the selected checklist items, and the strict output
// contract.
func (c *Compiler) Compile(url string, snap *models.Snapshot, checklist models.Checklist) string {
	var b strings.Builder

	b.WriteString("You are auditing the website at " + url + ".\n")
	b.WriteString("Evaluate it against the checklist below using only the evidence provided.\n\n")

	c.writeContentSection(&b, url, snap)
	writeStyleSection(&b, snap.StyleAnalysis)
	writeReflowSection(&b, snap.ReflowTest)
	writeZoomSection(&b, snap.ZoomTest)
	writeMobileSection(&b, snap.MobileData)
	writeMetricsSection(&b, snap.ExternalMetrics)
	writeChecklistSection(&b, checklist)
	writeOutputContract(&b)

	return b.String()
}

func (c *Compiler) writeContentSection(b *strings.Builder, url string, snap *models.Snapshot) {
	sd := snap.StructuredData

	b.WriteString("## Page summary\n")
	fmt.Fprintf(b, "Title: %s\n", orNone(sd.Title))
	fmt.Fprintf(b, "Meta description: %s\n", orNone(sd.MetaDescription))
	fmt.Fprintf(b, "Fetch method: %s\n", snap.FetchMethod)
	writeHeadingList(b, "H1", sd.H1)
	writeHeadingList(b, "H2", sd.H2)
	writeHeadingList(b, "H3", sd.H3)
	fmt.Fprintf(b, "Forms on page: %d\n", sd.FormCount)

	if len(sd.Buttons) > 0 {
		b.WriteString("Buttons: " + strings.Join(sd.Buttons, " | ") + "\n")
	}

	var ctas, links []string
	for _, l := range sd.Links {
		if l.Text == "" {
			continue
		}
		if l.IsCTA {
			ctas = append(ctas, l.Text)
		} else {
			links = append(links, l.Text)
		}
	}
	if len(ctas) > 0 {
		b.WriteString("Call-to-action links: " + strings.Join(ctas, " | ") + "\n")
	}
	if len(links) > 0 {
		b.WriteString("Other links: " + strings.Join(links, " | ") + "\n")
	}

	missingAlt := 0
	for _, img := range sd.Images {
		if img.Alt == "" {
			missingAlt++
		}
	}
	fmt.Fprintf(b, "Images: %d total, %d without alt text\n", len(sd.Images), missingAlt)

	b.WriteString("\n## Page content\n")
	if md := c.mainContentMarkdown(snap.HTML, url, maxContentBytes); md != "" {
		b.WriteString(md + "\n")
	} else if sd.TextContent != "" {
		b.WriteString(sd.TextContent + "\n")
	} else {
		b.WriteString("No readable text content could be extracted.\n")
	}
	b.WriteString("\n")
}

func writeHeadingList(b *strings.Builder, label string, headings []string) {
	if len(headings) == 0 {
		fmt.Fprintf(b, "%s headings: none\n", label)
		return
	}
	fmt.Fprintf(b, "%s headings: %s\n", label, strings.Join(headings, " | "))
}

func writeStyleSection(b *strings.Builder, style *models.StyleAnalysis) {
	b.WriteString("## Desktop style analysis\n")
	if style == nil {
		b.WriteString("Style data unavailable; analyze from static content only.\n\n")
		return
	}

	underlined, plain := 0, 0
	for _, l := range style.Links {
		if l.Underlined {
			underlined++
		} else {
			plain++
		}
	}
	fmt.Fprintf(b, "Links probed: %d underlined, %d not underlined.\n", underlined, plain)
	for _, l := range style.Links {
		if !l.Underlined {
			fmt.Fprintf(b, "- link %q color %s vs body text %s, weight %s\n",
				l.Text, l.Color, l.SurroundingColor, l.FontWeight)
		}
	}

	unlabeled := 0
	for _, fc := range style.FormControls {
		if !fc.HasAccessibleLabel {
			unlabeled++
			fmt.Fprintf(b, "- %s control %s has no accessible label (placeholder %q)\n",
				fc.Type, fc.Element, fc.Placeholder)
		}
	}
	fmt.Fprintf(b, "Form controls probed: %d, %d without accessible labels.\n",
		len(style.FormControls), unlabeled)

	if len(style.ErrorMessages) > 0 {
		b.WriteString("Detected error messages: " + strings.Join(style.ErrorMessages, " | ") + "\n")
	}

	fmt.Fprintf(b, "Spacing/typography units: %d absolute, %d relative",
		style.SpacingUnits.AbsoluteCount, style.SpacingUnits.RelativeCount)
	if len(style.SpacingUnits.Samples) > 0 {
		b.WriteString(" (samples: " + strings.Join(style.SpacingUnits.Samples, ", ") + ")")
	}
	b.WriteString("\n")

	writeTargetSizes(b, style.TargetSizes, "24x24 desktop minimum")

	st := style.InteractiveStates
	fmt.Fprintf(b, "Interactive state styles: hover=%t focus=%t active=%t disabled=%t focus-visible rules=%d\n",
		st.HasHoverStyles, st.HasFocusStyles, st.HasActiveStyles, st.HasDisabledStyles, st.FocusVisibleRules)

	for _, t := range style.HoverOnlyTooltips {
		fmt.Fprintf(b, "- hover-only tooltip on %s: %q\n", t.Element, t.Title)
	}
	for _, a := range style.Animations {
		fmt.Fprintf(b, "- animation/transition on %s (%s %s)\n", a.Element, a.Name, a.Duration)
	}
	for _, ci := range style.ColorOnlyIndicators {
		fmt.Fprintf(b, "- possible color-only status indicator %s (background %s)\n", ci.Element, ci.Background)
	}
	for _, nt := range style.NonTextContrast {
		fmt.Fprintf(b, "- control %s: background %s, border %s, parent background %s\n",
			nt.Element, nt.Background, nt.BorderColor, nt.ParentBackground)
	}
	b.WriteString("\n")
}

func writeTargetSizes(b *strings.Builder, targets []models.TargetSize, label string) {
	if len(targets) == 0 {
		return
	}
	failing := 0
	for _, t := range targets {
		if !t.MeetsWCAG {
			failing++
			fmt.Fprintf(b, "- target %s is %.0fx%.0f effective (below %s)\n",
				t.Element, t.EffectiveWidth, t.EffectiveHeight, label)
		}
	}
	fmt.Fprintf(b, "Target sizes: %d probed, %d below the %s.\n", len(targets), failing, label)
}

func writeReflowSection(b *strings.Builder, reflow *models.ReflowTest) {
	b.WriteString("## 320px reflow test\n")
	if reflow == nil {
		b.WriteString("Reflow data unavailable; analyze from static content only.\n\n")
		return
	}
	fmt.Fprintf(b, "At %dpx width: scrollWidth=%d clientWidth=%d, horizontal overflow=%t, passed=%t.\n\n",
		reflow.ViewportWidth, reflow.ScrollWidth, reflow.ClientWidth, reflow.HasOverflow, reflow.Passed)
}

func writeZoomSection(b *strings.Builder, zoom *models.ZoomTest) {
	b.WriteString("## 200% zoom test\n")
	if zoom == nil {
		b.WriteString("Zoom data unavailable; analyze from static content only.\n\n")
		return
	}
	fmt.Fprintf(b, "Content width %d before zoom, %d after; scrollWidth after %d; overflow=%t. "+
		"Scrolling under zoom is acceptable; judge readability from the content itself.\n\n",
		zoom.WidthBefore, zoom.WidthAfter, zoom.ScrollWidthAfter, zoom.OverflowAfterZoom)
}

func writeMobileSection(b *strings.Builder, mobile *models.MobileData) {
	b.WriteString("## Mobile rendering\n")
	if mobile == nil {
		b.WriteString("Mobile data unavailable; analyze from static content only.\n\n")
		return
	}

	fmt.Fprintf(b, "Viewport meta present: %t", mobile.HasViewportMeta)
	if mobile.ViewportContent != "" {
		fmt.Fprintf(b, " (%s)", mobile.ViewportContent)
	}
	b.WriteString("\n")

	writeTargetSizes(b, mobile.TouchTargets, "44x44 mobile minimum")

	for _, v := range mobile.SpacingViolations {
		fmt.Fprintf(b, "- elements %s and %s are only %.0fpx apart\n", v.First, v.Second, v.Distance)
	}

	if mobile.Reduced {
		b.WriteString("Only a reduced mobile capture (viewport and touch targets) was possible.\n\n")
		return
	}

	fmt.Fprintf(b, "Responsive media queries: %d (responsive=%t).\n",
		mobile.MediaQueryCount, mobile.HasResponsiveMediaQueries)
	fmt.Fprintf(b, "Typography: base size %s, %d relative-unit vs %d fixed-unit font declarations (relative=%t; fixed units block user font-size overrides).\n",
		mobile.Typography.BaseFontSize, mobile.Typography.RelativeUnitCount,
		mobile.Typography.FixedUnitCount, mobile.Typography.UsesRelativeUnits)

	if mobile.StructuredData != nil {
		fmt.Fprintf(b, "Mobile DOM: title %q, %d forms, %d links.\n",
			mobile.StructuredData.Title, mobile.StructuredData.FormCount, len(mobile.StructuredData.Links))
	}
	b.WriteString("\n")
}

func writeMetricsSection(b *strings.Builder, metrics *models.ExternalMetrics) {
	b.WriteString("## Lab metrics\n")
	if metrics == nil {
		b.WriteString("Lab metrics unavailable; analyze from static content only.\n\n")
		return
	}
	writeStrategyMetrics(b, "Mobile", metrics.Mobile)
	writeStrategyMetrics(b, "Desktop", metrics.Desktop)
	b.WriteString("\n")
}

func writeStrategyMetrics(b *strings.Builder, label string, m *models.StrategyMetrics) {
	if m == nil {
		fmt.Fprintf(b, "%s lab scores unavailable.\n", label)
		return
	}
	fmt.Fprintf(b, "%s scores (0-1): performance=%.2f accessibility=%.2f best-practices=%.2f seo=%.2f\n",
		label, m.Performance, m.Accessibility, m.BestPractices, m.SEO)
	names := make([]string, 0, len(m.Audits))
	for name := range m.Audits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		audit := m.Audits[name]
		if audit.Score != nil {
			fmt.Fprintf(b, "- %s audit %s: score %.2f %s\n", strings.ToLower(label), name, *audit.Score, audit.DisplayValue)
		}
	}
}

func writeChecklistSection(b *strings.Builder, checklist models.Checklist) {
	b.WriteString("## Audit checklist\n")
	if !checklist.HasSelection() {
		b.WriteString("No checklist items were selected; produce an empty categories list.\n\n")
		return
	}

	for _, cat := range checklist {
		selected := cat.SelectedItems()
		if len(selected) == 0 {
			// A category with nothing selected is omitted entirely,
			// never emitted with an empty item list.
			continue
		}
		label := cat.Label
		if label == "" {
			label = cat.Key
		}
		fmt.Fprintf(b, "### %s\n", label)
		for _, item := range selected {
			fmt.Fprintf(b, "- %s\n", item.Label)
			if item.Instruction != "" {
				fmt.Fprintf(b, "  Priority instruction for %q (overrides default treatment): %s\n",
					item.Label, item.Instruction)
			}
		}
	}
	b.WriteString("\n")
}

func writeOutputContract(b *strings.Builder) {
	b.WriteString(`## Output format
Respond with exactly one JSON object and nothing else. No markdown fences, no prose before or after.
Shape:
{"categories":[{"title":"<category label>","items":[{"label":"<item label>","status":"<status>","findings":"<text>","issues":["<text>"],"recommendations":["<text>"]}]}]}
Rules:
- "status" must be one of: "pass", "fail", "warning", "not_applicable".
- Include one category object per checklist category above, in the same order, and one item per selected checklist item.
- Escape all quotes and newlines inside strings.
- Do not emit trailing commas.
`)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
