package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/pagelens/pagelens/models"
)

// Minimum effective target sizes, boundary inclusive.
const (
	desktopTargetMin = 24.0
	mobileTargetMin  = 44.0
)

// styleProbeJS runs inside the page and returns the raw desktop fact set.
// Every category applies the index cutoff passed as `max` so execution time
// and payload stay bounded on pages with thousands of nodes. Authored CSS
// units are read from stylesheet rules (computed styles always report px);
// cross-origin sheets that refuse cssRules access are skipped.
const styleProbeJS = `(max) => {
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

	const bodyStyle = getComputedStyle(document.body);

	const links = cap(document.querySelectorAll('a[href]')).map((a) => {
		const s = getComputedStyle(a);
		return {
			text: (a.textContent || '').trim().slice(0, 80),
			color: s.color,
			surrounding_color: bodyStyle.color,
			text_decoration: s.textDecorationLine,
			font_weight: s.fontWeight,
			underlined: s.textDecorationLine.indexOf('underline') !== -1,
		};
	});

	const form_controls = cap(document.querySelectorAll(
		'input:not([type=hidden]), select, textarea')).map((el) => {
		const s = getComputedStyle(el);
		let labeled = false;
		if (el.id) {
			const l = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
			if (l && visible(l)) labeled = true;
		}
		if (!labeled && el.closest('label')) labeled = true;
		if (!labeled && el.getAttribute('aria-label')) labeled = true;
		if (!labeled) {
			const ref = el.getAttribute('aria-labelledby');
			if (ref) {
				const target = document.getElementById(ref.split(/\s+/)[0]);
				if (target && visible(target)) labeled = true;
			}
		}
		return {
			element: describe(el),
			type: (el.type || el.tagName.toLowerCase()),
			has_accessible_label: labeled,
			color: s.color,
			background: s.backgroundColor,
			placeholder: el.getAttribute('placeholder') || '',
		};
	});

	const error_messages = cap(document.querySelectorAll(
		'[role=alert], [aria-invalid=true], .error, .field-error, .invalid-feedback'))
		.filter(visible)
		.map((el) => (el.textContent || '').trim().slice(0, 120))
		.filter((t) => t.length > 0);

	// Stylesheet scan: authored units, interactive pseudo-class rules,
	// animations. Bounded by total rule count, not per sheet.
	const spacingProps = ['margin', 'margin-top', 'margin-bottom', 'padding',
		'font-size', 'line-height', 'gap'];
	const relativeUnits = ['em', 'rem', '%', 'vw', 'vh', 'ex', 'ch'];
	const unitRe = /(-?\d*\.?\d+)(px|pt|cm|mm|in|em|rem|%|vw|vh|ex|ch)/;
	let absolute_count = 0, relative_count = 0;
	const samples = [];
	const states = { has_hover_styles: false, has_focus_styles: false,
		has_active_styles: false, has_disabled_styles: false, focus_visible_rules: 0 };
	const sheetAnimations = [];
	let rulesSeen = 0;
	for (const sheet of document.styleSheets) {
		let rules;
		try { rules = sheet.cssRules; } catch (e) { continue; }
		if (!rules) continue;
		for (const rule of rules) {
			if (rulesSeen++ > 2000) break;
			const sel = rule.selectorText || '';
			if (sel.indexOf(':hover') !== -1) states.has_hover_styles = true;
			if (sel.indexOf(':focus') !== -1) states.has_focus_styles = true;
			if (sel.indexOf(':focus-visible') !== -1) states.focus_visible_rules++;
			if (sel.indexOf(':active') !== -1) states.has_active_styles = true;
			if (sel.indexOf(':disabled') !== -1 || sel.indexOf('[disabled]') !== -1) states.has_disabled_styles = true;
			if (!rule.style) continue;
			const animName = rule.style.getPropertyValue('animation-name');
			const transDur = rule.style.getPropertyValue('transition-duration');
			if ((animName && animName !== 'none') || (transDur && transDur !== '0s')) {
				if (sheetAnimations.length < max) {
					sheetAnimations.push({ element: sel.slice(0, 80),
						name: animName || 'transition',
						duration: rule.style.getPropertyValue('animation-duration') || transDur || '' });
				}
			}
			for (const prop of spacingProps) {
				const v = rule.style.getPropertyValue(prop);
				if (!v) continue;
				if (prop === 'font-size' && (v === 'normal' || v === 'inherit')) {
					relative_count++;
					continue;
				}
				const m = v.match(unitRe);
				if (!m) continue;
				if (relativeUnits.indexOf(m[2]) !== -1) relative_count++;
				else absolute_count++;
				if (samples.length < 10) samples.push(prop + ': ' + v);
			}
		}
	}

	const target_sizes = cap(document.querySelectorAll(
		'a[href], button, input:not([type=hidden]), select, textarea, [role=button], [onclick]'))
		.filter(visible)
		.map((el) => {
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

	const hover_only_tooltips = cap(document.querySelectorAll('[title]'))
		.filter((el) => !el.getAttribute('aria-label') && !el.getAttribute('aria-describedby'))
		.map((el) => ({ element: describe(el), title: (el.getAttribute('title') || '').slice(0, 80) }));

	const color_only_indicators = cap(document.querySelectorAll(
		'[class*="status"], [class*="badge"], [class*="indicator"], [class*="dot"]'))
		.filter(visible)
		.filter((el) => (el.textContent || '').trim().length === 0)
		.map((el) => ({ element: describe(el), background: getComputedStyle(el).backgroundColor }));

	const non_text_contrast = cap(document.querySelectorAll(
		'button, input:not([type=hidden]), select, textarea'))
		.filter(visible)
		.map((el) => {
			const s = getComputedStyle(el);
			const parent = el.parentElement || document.body;
			return {
				element: describe(el),
				background: s.backgroundColor,
				border_color: s.borderTopColor,
				parent_background: getComputedStyle(parent).backgroundColor,
			};
		});

	return {
		links: links,
		form_controls: form_controls,
		error_messages: error_messages,
		spacing_units: { absolute_count: absolute_count, relative_count: relative_count, samples: samples },
		target_sizes: target_sizes,
		interactive_states: states,
		hover_only_tooltips: hover_only_tooltips,
		animations: sheetAnimations,
		color_only_indicators: color_only_indicators,
		non_text_contrast: non_text_contrast,
	};
}`

// runStyleProbe evaluates the style probe in the live page and returns the
// decoded fact set with target sizes judged against targetMin. Deterministic
// for identical DOM and styles.
func runStyleProbe(page *rod.Page, maxElements int, targetMin float64) (*models.StyleAnalysis, error) {
	res, err := page.Eval(styleProbeJS, maxElements)
	if err != nil {
		return nil, fmt.Errorf("style probe eval: %w", err)
	}

	var analysis models.StyleAnalysis
	if err := decodeEval(res.Value.Val(), &analysis); err != nil {
		return nil, fmt.Errorf("style probe decode: %w", err)
	}

	applyTargetMinimum(analysis.TargetSizes, targetMin)
	return &analysis, nil
}

// applyTargetMinimum judges each effective box against min. The boundary is
// inclusive: an element at exactly min×min complies.
func applyTargetMinimum(targets []models.TargetSize, min float64) {
	for i := range targets {
		targets[i].MeetsWCAG = targets[i].EffectiveWidth >= min && targets[i].EffectiveHeight >= min
	}
}

// decodeEval re-marshals an eval result value into a typed struct.
func decodeEval(val any, out any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
