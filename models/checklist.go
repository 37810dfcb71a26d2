package models

import "fmt"

// Checklist is the ordered set of audit categories supplied by the caller.
// The core treats it as read-only; a missing or empty category simply means
// "nothing to audit there", never an error.
type Checklist []ChecklistCategory

// ChecklistCategory groups checklist items under a known category key.
type ChecklistCategory struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Items []ChecklistItem `json:"items"`
}

// ChecklistItem is one audit question.
type ChecklistItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`

	// Instruction is an optional caller-supplied override. When set it
	// takes priority over the item's default treatment but stays anchored
	// to the item's label.
	Instruction string `json:"instruction,omitempty"`
}

// Known category keys. Checklists are validated against this set at the
// API boundary rather than threaded through as an open-ended mapping.
const (
	CategoryAccessibility = "accessibility"
	CategoryUsability     = "usability"
	CategoryPerformance   = "performance"
	CategorySEO           = "seo"
	CategoryMobile        = "mobile"
	CategoryContent       = "content"
	CategoryTrust         = "trust"
)

var knownCategories = map[string]struct{}{
	CategoryAccessibility: {},
	CategoryUsability:     {},
	CategoryPerformance:   {},
	CategorySEO:           {},
	CategoryMobile:        {},
	CategoryContent:       {},
	CategoryTrust:         {},
}

// Validate checks that every category key belongs to the known set and
// that labels are present on selected items.
func (c Checklist) Validate() error {
	for _, cat := range c {
		if _, ok := knownCategories[cat.Key]; !ok {
			return fmt.Errorf("unknown checklist category %q", cat.Key)
		}
		for _, item := range cat.Items {
			if item.Selected && item.Label == "" {
				return fmt.Errorf("category %q: selected item %q has no label", cat.Key, item.ID)
			}
		}
	}
	return nil
}

// SelectedItems returns the items marked selected in a category.
func (cat ChecklistCategory) SelectedItems() []ChecklistItem {
	var out []ChecklistItem
	for _, item := range cat.Items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}

// HasSelection reports whether any item in any category is selected.
func (c Checklist) HasSelection() bool {
	for _, cat := range c {
		if len(cat.SelectedItems()) > 0 {
			return true
		}
	}
	return false
}
