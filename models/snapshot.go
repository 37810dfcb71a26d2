package models

import "time"

// Snapshot is the complete structured capture of one page render. It is
// produced once per audit request and never mutated afterwards.
//
// Every optional field is nil rather than partially populated: a failed
// sub-stage must not leak misleading half-data into the prompt.
type Snapshot struct {
	// URL is the requested target.
	URL string `json:"url"`

	// FinalURL is the URL after redirects, when known.
	FinalURL string `json:"final_url,omitempty"`

	// FetchedAt is the capture timestamp.
	FetchedAt time.Time `json:"fetched_at"`

	// FetchMethod records how the page was captured: "browser" or "http".
	FetchMethod string `json:"fetch_method"`

	// HTML is the rendered (or raw) page markup, truncated to the
	// configured byte budget. Never unbounded.
	HTML string `json:"html"`

	// StructuredData is the DOM content summary. Always populated,
	// on both the browser and the static-fetch path.
	StructuredData StructuredData `json:"structured_data"`

	// StyleAnalysis holds desktop computed-style facts. Browser path only.
	StyleAnalysis *StyleAnalysis `json:"style_analysis,omitempty"`

	// ReflowTest holds the 320px narrow-viewport result. Browser path only.
	ReflowTest *ReflowTest `json:"reflow_test,omitempty"`

	// ZoomTest holds the 200% zoom result. Browser path only.
	ZoomTest *ZoomTest `json:"zoom_test,omitempty"`

	// MobileData holds the phone-viewport re-render result. Browser path
	// only; nil when even the reduced mobile capture failed.
	MobileData *MobileData `json:"mobile_data,omitempty"`

	// ExternalMetrics holds independent lab scores, merged in by the audit
	// service after the concurrent metrics fetch. nil when unavailable.
	ExternalMetrics *ExternalMetrics `json:"external_metrics,omitempty"`

	// Screenshots maps selector (or "fullpage") to base64-encoded PNG
	// bytes. Opaque to this service; consumers interpret the image data.
	Screenshots map[string]string `json:"screenshots,omitempty"`
}

// StructuredData is the browser-independent content summary of a page.
type StructuredData struct {
	Title           string      `json:"title"`
	MetaDescription string      `json:"meta_description,omitempty"`
	H1              []string    `json:"h1"`
	H2              []string    `json:"h2"`
	H3              []string    `json:"h3"`
	Links           []PageLink  `json:"links"`
	Images          []PageImage `json:"images"`
	FormCount       int         `json:"form_count"`
	Buttons         []string    `json:"buttons"`

	// TextContent is the trimmed visible body text, bounded in length.
	TextContent string `json:"text_content"`
}

// PageLink is a hyperlink found on the page.
type PageLink struct {
	Text string `json:"text"`
	Href string `json:"href"`

	// IsCTA marks links whose text matches call-to-action keywords.
	IsCTA bool `json:"is_cta"`
}

// PageImage is an image element found on the page.
type PageImage struct {
	Src   string `json:"src"`
	Alt   string `json:"alt"`
	Title string `json:"title,omitempty"`
}

// StyleAnalysis is the bounded fact set read from computed styles inside a
// live page. Raw values are surfaced as-is; judging contrast ratios etc.
// is left to the downstream report model.
type StyleAnalysis struct {
	Links               []LinkStyle           `json:"links"`
	FormControls        []FormControl         `json:"form_controls"`
	ErrorMessages       []string              `json:"error_messages"`
	SpacingUnits        SpacingUnits          `json:"spacing_units"`
	TargetSizes         []TargetSize          `json:"target_sizes"`
	InteractiveStates   InteractiveStates     `json:"interactive_states"`
	HoverOnlyTooltips   []HoverTooltip        `json:"hover_only_tooltips"`
	Animations          []Animation           `json:"animations"`
	ColorOnlyIndicators []ColorIndicator      `json:"color_only_indicators"`
	NonTextContrast     []NonTextContrastFact `json:"non_text_contrast"`
}

// LinkStyle captures how a link is visually distinguished from body text.
type LinkStyle struct {
	Text             string `json:"text"`
	Color            string `json:"color"`
	SurroundingColor string `json:"surrounding_color"`
	TextDecoration   string `json:"text_decoration"`
	FontWeight       string `json:"font_weight"`
	Underlined       bool   `json:"underlined"`
}

// FormControl captures labelling and color facts for one form control.
type FormControl struct {
	Element string `json:"element"`
	Type    string `json:"type"`

	// HasAccessibleLabel is true when the control has a visible <label>,
	// an aria-label, or a visible aria-labelledby target. Hidden or
	// zero-opacity label targets do not count.
	HasAccessibleLabel bool `json:"has_accessible_label"`

	Color       string `json:"color"`
	Background  string `json:"background"`
	Placeholder string `json:"placeholder,omitempty"`
}

// SpacingUnits summarises absolute vs relative unit usage in the page's
// stylesheets. Fixed units block user font-size overrides, which is the
// zoom/reflow-adjacent fact the report consumer relies on.
type SpacingUnits struct {
	AbsoluteCount int      `json:"absolute_count"`
	RelativeCount int      `json:"relative_count"`
	Samples       []string `json:"samples,omitempty"`
}

// TargetSize is the effective clickable box of one interactive element:
// geometric box plus padding, not just the border box.
type TargetSize struct {
	Element         string  `json:"element"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	EffectiveWidth  float64 `json:"effective_width"`
	EffectiveHeight float64 `json:"effective_height"`

	// MeetsWCAG is evaluated against the per-context minimum
	// (24px desktop, 44px mobile), boundary inclusive.
	MeetsWCAG bool `json:"meets_wcag"`
}

// InteractiveStates records which interactive pseudo-class rules the page's
// stylesheets define at all.
type InteractiveStates struct {
	HasHoverStyles    bool `json:"has_hover_styles"`
	HasFocusStyles    bool `json:"has_focus_styles"`
	HasActiveStyles   bool `json:"has_active_styles"`
	HasDisabledStyles bool `json:"has_disabled_styles"`
	FocusVisibleRules int  `json:"focus_visible_rules"`
}

// HoverTooltip is an element whose help text is exposed only via the title
// attribute (no aria-label / aria-describedby), i.e. hover-only.
type HoverTooltip struct {
	Element string `json:"element"`
	Title   string `json:"title"`
}

// Animation is a detected CSS animation or transition.
type Animation struct {
	Element  string `json:"element"`
	Name     string `json:"name,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// ColorIndicator is a textless element that appears to convey status
// through color alone.
type ColorIndicator struct {
	Element    string `json:"element"`
	Background string `json:"background"`
}

// NonTextContrastFact surfaces raw colors of non-text UI parts (control
// borders and backgrounds against their surroundings).
type NonTextContrastFact struct {
	Element          string `json:"element"`
	Background       string `json:"background"`
	BorderColor      string `json:"border_color"`
	ParentBackground string `json:"parent_background"`
}

// ReflowTest is the 320px narrow-viewport overflow measurement.
type ReflowTest struct {
	ViewportWidth int  `json:"viewport_width"`
	ScrollWidth   int  `json:"scroll_width"`
	ClientWidth   int  `json:"client_width"`
	HasOverflow   bool `json:"has_overflow"`
	Passed        bool `json:"passed"`
}

// ZoomTest is the 200% zoom measurement. MeetsZoomRequirement is always
// true: scrolling under zoom is acceptable, and clipped/unreadable content
// cannot be detected from geometry alone, so only raw measurements are
// surfaced for the report model to weigh.
type ZoomTest struct {
	WidthBefore          int  `json:"width_before"`
	WidthAfter           int  `json:"width_after"`
	ScrollWidthAfter     int  `json:"scroll_width_after"`
	OverflowAfterZoom    bool `json:"overflow_after_zoom"`
	MeetsZoomRequirement bool `json:"meets_zoom_requirement"`
}

// MobileData is the phone-viewport re-render result.
type MobileData struct {
	HasViewportMeta bool   `json:"has_viewport_meta"`
	ViewportContent string `json:"viewport_content,omitempty"`

	// TouchTargets is evaluated against the 44px mobile minimum.
	TouchTargets []TargetSize `json:"touch_targets"`

	SpacingViolations []SpacingViolation `json:"spacing_violations"`

	HasResponsiveMediaQueries bool `json:"has_responsive_media_queries"`
	MediaQueryCount           int  `json:"media_query_count"`

	Typography TypographyFacts `json:"typography"`

	// StructuredData and StyleAnalysis mirror the desktop extraction
	// against the mobile-rendered DOM. nil on the reduced-capture path.
	StructuredData *StructuredData `json:"structured_data,omitempty"`
	StyleAnalysis  *StyleAnalysis  `json:"style_analysis,omitempty"`

	// Reduced marks a degraded capture (viewport + touch targets only)
	// after a failure inside the full mobile pass.
	Reduced bool `json:"reduced,omitempty"`
}

// SpacingViolation is a pair of interactive elements whose axis-aligned
// origin distance falls under the fixed minimum.
type SpacingViolation struct {
	First    string  `json:"first"`
	Second   string  `json:"second"`
	Distance float64 `json:"distance"`
}

// TypographyFacts summarises font sizing on the mobile render.
type TypographyFacts struct {
	BaseFontSize      string `json:"base_font_size"`
	RelativeUnitCount int    `json:"relative_unit_count"`
	FixedUnitCount    int    `json:"fixed_unit_count"`
	UsesRelativeUnits bool   `json:"uses_relative_units"`
}

// ExternalMetrics holds independent lab scores per strategy. Either side
// may be nil; absence never blocks the snapshot.
type ExternalMetrics struct {
	Mobile  *StrategyMetrics `json:"mobile,omitempty"`
	Desktop *StrategyMetrics `json:"desktop,omitempty"`
}

// StrategyMetrics is one strategy's category scores (0..1) plus named
// audit results.
type StrategyMetrics struct {
	Performance   float64                    `json:"performance"`
	Accessibility float64                    `json:"accessibility"`
	BestPractices float64                    `json:"best_practices"`
	SEO           float64                    `json:"seo"`
	Audits        map[string]LabAuditResult  `json:"audits,omitempty"`
}

// LabAuditResult is one named lab audit outcome.
type LabAuditResult struct {
	Score        *float64 `json:"score"`
	DisplayValue string   `json:"display_value,omitempty"`
}
