package models

import "testing"

func TestChecklistValidate_KnownCategories(t *testing.T) {
	c := Checklist{
		{Key: CategoryAccessibility, Items: []ChecklistItem{{ID: "a", Label: "A", Selected: true}}},
		{Key: CategoryTrust},
	}
	if err := c.Validate(); err != nil {
		t.Errorf("valid checklist rejected: %v", err)
	}
}

func TestChecklistValidate_UnknownCategory(t *testing.T) {
	c := Checklist{{Key: "astrology"}}
	if err := c.Validate(); err == nil {
		t.Error("unknown category key should be rejected")
	}
}

func TestChecklistValidate_SelectedWithoutLabel(t *testing.T) {
	c := Checklist{
		{Key: CategorySEO, Items: []ChecklistItem{{ID: "x", Selected: true}}},
	}
	if err := c.Validate(); err == nil {
		t.Error("selected item without a label should be rejected")
	}

	// Unselected items may be label-less; they are never emitted.
	c = Checklist{
		{Key: CategorySEO, Items: []ChecklistItem{{ID: "x", Selected: false}}},
	}
	if err := c.Validate(); err != nil {
		t.Errorf("unselected label-less item rejected: %v", err)
	}
}

func TestSelectedItems(t *testing.T) {
	cat := ChecklistCategory{
		Key: CategoryMobile,
		Items: []ChecklistItem{
			{ID: "a", Label: "A", Selected: true},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C", Selected: true},
		},
	}
	got := cat.SelectedItems()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("SelectedItems = %+v", got)
	}
}

func TestHasSelection(t *testing.T) {
	empty := Checklist{{Key: CategoryContent, Items: []ChecklistItem{{ID: "a", Label: "A"}}}}
	if empty.HasSelection() {
		t.Error("checklist with no selected items should report no selection")
	}

	one := Checklist{{Key: CategoryContent, Items: []ChecklistItem{{ID: "a", Label: "A", Selected: true}}}}
	if !one.HasSelection() {
		t.Error("checklist with a selected item should report a selection")
	}
}
