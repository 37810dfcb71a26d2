package llm

import (
	"fmt"
	"strings"
)

// Attempt records one try against a named backend.
type Attempt struct {
	Backend string
	Err     error
}

// LadderError is returned when every backend in the ladder has failed.
// It preserves each attempt's reason; "all failed" is a first-class value
// rather than an exception thrown from inside a loop.
type LadderError struct {
	Attempts []Attempt
}

func (e *LadderError) Error() string {
	reasons := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		reasons[i] = fmt.Sprintf("%s: %v", a.Backend, a.Err)
	}
	return "all generation backends failed: " + strings.Join(reasons, "; ")
}

// buildLadder orders the backend candidates: the caller's requested
// backend first, then the configured defaults, deduplicated.
func buildLadder(requested string, defaults []string) []string {
	seen := make(map[string]struct{}, len(defaults)+1)
	var ladder []string

	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		ladder = append(ladder, name)
	}

	add(requested)
	for _, name := range defaults {
		add(name)
	}
	return ladder
}
