package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/pagelens/pagelens/models"
)

func TestKey_VariesWithSelection(t *testing.T) {
	full := models.Checklist{
		{Key: models.CategorySEO, Items: []models.ChecklistItem{
			{ID: "meta", Label: "Meta", Selected: true},
		}},
	}
	empty := models.Checklist{
		{Key: models.CategorySEO, Items: []models.ChecklistItem{
			{ID: "meta", Label: "Meta"},
		}},
	}

	a := Key("https://example.com", "gpt-4o", full)
	b := Key("https://example.com", "gpt-4o", empty)
	if a == b {
		t.Error("different checklist selections must not share a key")
	}

	if Key("https://example.com", "gpt-4o", full) != a {
		t.Error("key must be deterministic")
	}
	if Key("https://example.com", "gpt-4o-mini", full) == a {
		t.Error("different models must not share a key")
	}
	if Key("https://other.com", "gpt-4o", full) == a {
		t.Error("different URLs must not share a key")
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10)
	resp := &models.AuditResponse{Success: true, Backend: "gpt-4o"}
	key := Key("https://example.com", "", nil)

	if _, hit := c.Get(key, 60_000); hit {
		t.Error("unexpected hit on empty cache")
	}

	c.Set(key, resp)

	got, hit := c.Get(key, 60_000)
	if !hit {
		t.Fatal("expected cache hit")
	}
	if got.Backend != "gpt-4o" {
		t.Errorf("wrong cached response: %+v", got)
	}
}

func TestCache_MaxAgeZeroSkipsLookup(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", "", nil)
	c.Set(key, &models.AuditResponse{Success: true})

	if _, hit := c.Get(key, 0); hit {
		t.Error("maxAge 0 must bypass the cache")
	}
	if _, hit := c.Get(key, -1); hit {
		t.Error("negative maxAge must bypass the cache")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", "", nil)
	c.Set(key, &models.AuditResponse{Success: true})

	// Age the entry past a very small maxAge.
	time.Sleep(5 * time.Millisecond)
	if _, hit := c.Get(key, 1); hit {
		t.Error("entry older than maxAge must miss")
	}
}

func TestCache_CapacityEviction(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.Set(Key(fmt.Sprintf("https://example.com/%d", i), "", nil), &models.AuditResponse{})
	}

	c.mu.RLock()
	size := len(c.store)
	c.mu.RUnlock()
	if size > 3 {
		t.Errorf("cache grew past capacity: %d entries", size)
	}
}
