package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pagelens/pagelens/models"
)

// parseReport turns raw model output into a Report. The repair policy is a
// deliberate two-attempt ceiling: strip formatting noise and try a strict
// parse; on failure apply the structural repairs (trailing commas, bracket
// balancing) and try exactly once more. Further heuristics would risk
// silently fabricating report content, so the second failure is final and
// surfaces the original parse error.
func parseReport(raw string) (*models.Report, error) {
	candidate := extractObject(stripFences(raw))
	if candidate == "" {
		return nil, models.NewAuditError(models.ErrCodeReportParse,
			"response contains no JSON object", nil)
	}

	report, firstErr := strictParse(candidate)
	if firstErr == nil {
		return report, nil
	}

	repaired := balanceBrackets(stripTrailingCommas(candidate))
	report, retryErr := strictParse(repaired)
	if retryErr != nil {
		return nil, models.NewAuditError(models.ErrCodeReportParse,
			"response could not be repaired into a valid report", firstErr)
	}
	return report, nil
}

func strictParse(s string) (*models.Report, error) {
	var report models.Report
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

var fenceRe = regexp.MustCompile("(?m)^```[a-zA-Z]*[ \t]*$")

// stripFences removes Markdown code-fence marker lines.
func stripFences(s string) string {
	s = fenceRe.ReplaceAllString(s, "")
	// Inline fences (fence and payload on one line) survive the line-based
	// pass; strip any remaining marker runs.
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractObject returns the first top-level {...} span via greedy brace
// matching, discarding any leading or trailing prose. When the closing
// brace never arrives (truncated output) everything from the first opening
// brace onward is returned so the balancer can attempt to close it.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, '}')
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// stripTrailingCommas removes commas directly preceding a closing brace or
// bracket. String contents are not protected here; the pattern only fires
// on a comma-whitespace-closer run, which valid JSON string data that
// reaches this path practically never contains.
func stripTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// balanceBrackets appends the closing braces/brackets a truncated response
// is missing, in the order the still-open scopes require. The scan is
// string-aware so braces inside JSON strings don't corrupt the stack.
// Surplus closers are left alone; that case is unrepairable and fails the
// retry parse as it should.
func balanceBrackets(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 {
		return s
	}

	// A string left open by truncation must be closed before the scopes.
	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
