package pipeline

import (
	"testing"
	"time"

	"github.com/briefdhq/briefd/models"
)

func TestClassifyAssignsCategories(t *testing.T) {
	t.Parallel()
	c := NewClassifier()
	item := &models.UnifiedDataItem{
		Title:   "URGENT: production down",
		Content: "outage since 9am, bug in the release, fix asap",
	}
	c.Classify(item)

	want := map[string]bool{"urgent": true, "technical_issue": true}
	for _, cat := range item.Categories {
		delete(want, cat)
	}
	if len(want) > 0 {
		t.Fatalf("missing categories %v in %v", want, item.Categories)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	t.Parallel()
	c := NewClassifier()
	c.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	item := &models.UnifiedDataItem{Title: "bug report", Content: "crash on startup"}
	c.Classify(item)
	cats := len(item.Categories)
	quality := item.QualityScore

	c.Classify(item)
	if len(item.Categories) != cats {
		t.Fatalf("categories grew on reclassification: %v", item.Categories)
	}
	if item.QualityScore != quality {
		t.Fatalf("quality changed on reclassification: %v vs %v", item.QualityScore, quality)
	}
}

func TestFreshnessDecay(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewClassifier()
	c.now = func() time.Time { return now }

	fifteenDays := now.Add(-15 * 24 * time.Hour)
	item := &models.UnifiedDataItem{UpdatedAt: &fifteenDays}
	if got := c.freshness(item); got < 0.49 || got > 0.51 {
		t.Fatalf("15-day freshness = %v, want ~0.5", got)
	}

	old := now.Add(-40 * 24 * time.Hour)
	item = &models.UnifiedDataItem{UpdatedAt: &old}
	if got := c.freshness(item); got != 0 {
		t.Fatalf("40-day freshness = %v, want 0", got)
	}

	if got := c.freshness(&models.UnifiedDataItem{}); got != 0.5 {
		t.Fatalf("no-timestamp freshness = %v, want 0.5", got)
	}
}

func TestQualityCappedAtOne(t *testing.T) {
	t.Parallel()
	item := &models.UnifiedDataItem{
		Title:          "Full item",
		Content:        string(make([]byte, 100)),
		Author:         "dana",
		Participants:   []string{"a", "b"},
		Tags:           []string{"x"},
		Categories:     []string{"development"},
		SourceMetadata: map[string]interface{}{"k": "v"},
	}
	if got := quality(item); got > 1.0 {
		t.Fatalf("quality = %v, want <= 1.0", got)
	}
	if got := quality(item); got != 1.0 {
		t.Fatalf("fully populated item quality = %v, want 1.0", got)
	}
}
