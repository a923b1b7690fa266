package pipeline

import (
	"testing"

	"github.com/briefdhq/briefd/models"
)

func TestDeduplicateExactMatch(t *testing.T) {
	t.Parallel()
	d := NewDeduplicator()
	a := &models.UnifiedDataItem{ID: "a", Title: "Release notes", Content: "v2 is out", Author: "dana"}
	b := &models.UnifiedDataItem{ID: "b", Title: "Release notes", Content: "v2 is out", Author: "dana"}

	clusters := d.Deduplicate([]*models.UnifiedDataItem{a, b})

	if a.IsDuplicate() {
		t.Fatal("first-seen item must stay canonical")
	}
	if b.DuplicateOf != "a" {
		t.Fatalf("DuplicateOf = %q, want a", b.DuplicateOf)
	}
	if b.DuplicateConfidence != 1.0 {
		t.Fatalf("exact match confidence = %v, want 1.0", b.DuplicateConfidence)
	}
	if got := clusters["a"]; len(got) != 1 || got[0] != "b" {
		t.Fatalf("clusters = %#v", clusters)
	}
}

func TestDeduplicateDistinctItems(t *testing.T) {
	t.Parallel()
	d := NewDeduplicator()
	a := &models.UnifiedDataItem{ID: "a", Title: "Standup notes", Content: "short sync", Author: "bob"}
	b := &models.UnifiedDataItem{ID: "b", Title: "Incident report", Content: "database failover at noon", Author: "eve"}

	clusters := d.Deduplicate([]*models.UnifiedDataItem{a, b})
	if len(clusters) != 0 {
		t.Fatalf("unexpected clusters: %#v", clusters)
	}
	if a.IsDuplicate() || b.IsDuplicate() {
		t.Fatal("distinct items must both stay canonical")
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	t.Parallel()
	d := NewDeduplicator()
	items := []*models.UnifiedDataItem{
		{ID: "a", Title: "Release notes", Content: "v2 is out", Author: "dana"},
		{ID: "b", Title: "Release notes", Content: "v2 is out", Author: "dana"},
		{ID: "c", Title: "Other", Content: "unrelated", Author: "eve"},
	}
	first := d.Deduplicate(items)
	second := d.Deduplicate(items)
	if len(first) != len(second) {
		t.Fatalf("cluster count changed: %d vs %d", len(first), len(second))
	}
	if items[1].DuplicateOf != "a" || items[1].DuplicateConfidence != 1.0 {
		t.Fatalf("duplicate markers unstable: %q %v", items[1].DuplicateOf, items[1].DuplicateConfidence)
	}
}

func TestCanonicalFiltersSuppressed(t *testing.T) {
	t.Parallel()
	items := []*models.UnifiedDataItem{
		{ID: "a"},
		{ID: "b", DuplicateOf: "a"},
		{ID: "c"},
	}
	got := Canonical(items)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("canonical = %#v", got)
	}
}

func TestHashSimilarity(t *testing.T) {
	t.Parallel()
	if got := hashSimilarity("abcdef", "abcdef"); got != 1.0 {
		t.Fatalf("identical hashes = %v, want 1.0", got)
	}
	if got := hashSimilarity("aaaa", "aaab"); got != 0.75 {
		t.Fatalf("three-of-four agreement = %v, want 0.75", got)
	}
	if got := hashSimilarity("", ""); got != 1.0 {
		t.Fatalf("empty hashes = %v, want 1.0", got)
	}
}

func TestContentHashIgnoresMetadata(t *testing.T) {
	t.Parallel()
	a := &models.UnifiedDataItem{ID: "a", Title: "T", Content: "C", Author: "A", SourceID: "1"}
	b := &models.UnifiedDataItem{ID: "b", Title: "T", Content: "C", Author: "A", SourceID: "2"}
	if ContentHash(a) != ContentHash(b) {
		t.Fatal("hash must depend only on title, content and author")
	}
}
