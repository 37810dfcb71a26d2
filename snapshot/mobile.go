package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pagelens/pagelens/models"
)

// mobileProbeJS collects the phone-viewport fact set: viewport meta, touch
// targets, inter-element spacing, responsive media queries and typography.
// Same bounding discipline as the desktop probe.
const mobileProbeJS = `(max, minSpacing) => {
	const cap = (list) => Array.from(list).slice(0, max);
	const visible = (el) => {
		const s = getComputedStyle(el);
		const r = el.getBoundingClientRect();
		return s.display !== 'none' && s.visibility !== 'hidden' &&
			parseFloat(s.opacity) > 0 && r.width > 0 && r.height > 0;
	};
	const describe = (el) => {
		let d = el.tagName.toLowerCase();
		if (el.id) d += '#' + el.id;
		else if (el.classList.length > 0) d += '.' + el.classList[0];
		return d;
	};

	const meta = document.querySelector('meta[name="viewport"]');

	const interactive = cap(document.querySelectorAll(
		'a[href], button, input:not([type=hidden]), select, textarea, [role=button]'))
		.filter(visible);

	const touch_targets = interactive.map((el) => {
		const r = el.getBoundingClientRect();
		const s = getComputedStyle(el);
		const padX = parseFloat(s.paddingLeft) + parseFloat(s.paddingRight);
		const padY = parseFloat(s.paddingTop) + parseFloat(s.paddingBottom);
		return {
			element: describe(el),
			width: Math.round(r.width * 10) / 10,
			height: Math.round(r.height * 10) / 10,
			effective_width: Math.round((r.width + padX) * 10) / 10,
			effective_height: Math.round((r.height + padY) * 10) / 10,
		};
	});

	// Axis-aligned origin distance between interactive elements.
	const spacing_violations = [];
	const rects = interactive.map((el) => ({ d: describe(el), r: el.getBoundingClientRect() }));
	for (let i = 0; i < rects.length && spacing_violations.length < max; i++) {
		for (let j = i + 1; j < rects.length && spacing_violations.length < max; j++) {
			const a = rects[i].r, b = rects[j].r;
			const dx = Math.abs(a.left - b.left);
			const dy = Math.abs(a.top - b.top);
			const dist = Math.max(dx, dy);
			if (dist > 0 && dist < minSpacing) {
				spacing_violations.push({ first: rects[i].d, second: rects[j].d,
					distance: Math.round(dist * 10) / 10 });
			}
		}
	}

	let media_query_count = 0;
	let relative_fonts = 0, fixed_fonts = 0;
	const relativeUnits = ['em', 'rem', '%', 'vw', 'vh', 'ex', 'ch'];
	const unitRe = /(-?\d*\.?\d+)(px|pt|cm|mm|in|em|rem|%|vw|vh|ex|ch)/;
	let rulesSeen = 0;
	for (const sheet of document.styleSheets) {
		let rules;
		try { rules = sheet.cssRules; } catch (e) { continue; }
		if (!rules) continue;
		for (const rule of rules) {
			if (rulesSeen++ > 2000) break;
			if (rule.media && /(max|min)-width/.test(rule.media.mediaText)) {
				media_query_count++;
			}
			if (!rule.style) continue;
			const v = rule.style.getPropertyValue('font-size');
			if (!v) continue;
			if (v === 'normal' || v === 'inherit') { relative_fonts++; continue; }
			const m = v.match(unitRe);
			if (!m) continue;
			if (relativeUnits.indexOf(m[2]) !== -1) relative_fonts++;
			else fixed_fonts++;
		}
	}

	return {
		has_viewport_meta: meta !== null,
		viewport_content: meta ? (meta.getAttribute('content') || '') : '',
		touch_targets: touch_targets,
		spacing_violations: spacing_violations,
		has_responsive_media_queries: media_query_count > 0,
		media_query_count: media_query_count,
		typography: {
			base_font_size: getComputedStyle(document.body).fontSize,
			relative_unit_count: relative_fonts,
			fixed_unit_count: fixed_fonts,
			uses_relative_units: relative_fonts >= fixed_fonts && relative_fonts > 0,
		},
	};
}`

// reducedMobileJS is the degraded capture: viewport meta plus touch-target
// boxes only, nothing that walks stylesheets.
const reducedMobileJS = `(max) => {
	const meta = document.querySelector('meta[name="viewport"]');
	const touch_targets = Array.from(document.querySelectorAll(
		'a[href], button, input:not([type=hidden]), [role=button]')).slice(0, max)
		.map((el) => {
			const r = el.getBoundingClientRect();
			return { element: el.tagName.toLowerCase(),
				width: Math.round(r.width * 10) / 10,
				height: Math.round(r.height * 10) / 10,
				effective_width: Math.round(r.width * 10) / 10,
				effective_height: Math.round(r.height * 10) / 10 };
		});
	return {
		has_viewport_meta: meta !== null,
		viewport_content: meta ? (meta.getAttribute('content') || '') : '',
		touch_targets: touch_targets,
	};
}`

// minTouchSpacing is the fixed minimum axis-aligned distance between
// interactive element origins on the mobile render.
const minTouchSpacing = 24.0

// captureMobile re-renders the page under a phone viewport and user agent
// and runs the mobile probe plus the structured/style mirrors against the
// mobile DOM. A failure anywhere degrades to the reduced extraction; if
// that also fails the error propagates and the caller records nil.
func (s *session) captureMobile(ctx context.Context) (*models.MobileData, error) {
	if err := s.emulateMobile(ctx); err != nil {
		return nil, fmt.Errorf("mobile emulation: %w", err)
	}

	data, err := s.fullMobileExtraction(ctx)
	if err == nil {
		return data, nil
	}
	slog.Warn("mobile capture degraded to reduced extraction",
		"url", s.url, "error", err)

	return s.reducedMobileExtraction(ctx)
}

func (s *session) fullMobileExtraction(ctx context.Context) (*models.MobileData, error) {
	p := s.page.Context(ctx)

	res, err := p.Eval(mobileProbeJS, s.cfg.MaxElements, minTouchSpacing)
	if err != nil {
		return nil, fmt.Errorf("mobile probe eval: %w", err)
	}
	var data models.MobileData
	if err := decodeEval(res.Value.Val(), &data); err != nil {
		return nil, fmt.Errorf("mobile probe decode: %w", err)
	}
	applyTargetMinimum(data.TouchTargets, mobileTargetMin)

	// Mirror of the desktop extraction against the mobile-rendered DOM.
	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("mobile html: %w", err)
	}
	structured := ExtractDOM(truncate(html, s.cfg.MaxHTMLBytes), s.cfg.MaxTextBytes)
	data.StructuredData = &structured

	style, err := runStyleProbe(p, s.cfg.MaxElements, mobileTargetMin)
	if err != nil {
		return nil, fmt.Errorf("mobile style probe: %w", err)
	}
	data.StyleAnalysis = style

	return &data, nil
}

func (s *session) reducedMobileExtraction(ctx context.Context) (*models.MobileData, error) {
	p := s.page.Context(ctx)

	res, err := p.Eval(reducedMobileJS, s.cfg.MaxElements)
	if err != nil {
		return nil, fmt.Errorf("reduced mobile eval: %w", err)
	}
	var data models.MobileData
	if err := decodeEval(res.Value.Val(), &data); err != nil {
		return nil, fmt.Errorf("reduced mobile decode: %w", err)
	}
	applyTargetMinimum(data.TouchTargets, mobileTargetMin)
	data.Reduced = true
	return &data, nil
}
