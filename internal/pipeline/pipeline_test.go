package pipeline

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/briefdhq/briefd/models"
)

func testPipeline() *Pipeline {
	p := New(log.New(io.Discard, "", 0))
	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	p.Trends.now = now
	p.Scorer.now = now
	return p
}

func TestAnalyzeSuppressesDuplicates(t *testing.T) {
	t.Parallel()
	p := testPipeline()
	batch := []*models.UnifiedDataItem{
		{ID: "a", Title: "Release notes", Content: "v2 is out", Author: "dana"},
		{ID: "b", Title: "Release notes", Content: "v2 is out", Author: "dana"},
		{ID: "c", Title: "Incident report", Content: "checkout errors spiked at noon", Author: "eve"},
	}
	result := p.Analyze(batch)

	if _, ok := result.Intelligence["b"]; ok {
		t.Fatal("suppressed duplicate must not get intelligence")
	}
	if _, ok := result.Intelligence["a"]; !ok {
		t.Fatal("canonical item missing intelligence")
	}
	if got := result.Duplicates["a"]; len(got) != 1 || got[0] != "b" {
		t.Fatalf("duplicates = %#v", result.Duplicates)
	}
}

func TestAnalyzeSetsRelevanceFromImportance(t *testing.T) {
	t.Parallel()
	p := testPipeline()
	batch := []*models.UnifiedDataItem{
		{ID: "a", Title: "URGENT outage", Content: "production down, fix asap", Author: "dana"},
		{ID: "b", Title: "Lunch menu", Content: "tacos on thursday", Author: "eve"},
	}
	result := p.Analyze(batch)

	for _, item := range batch {
		ci, ok := result.Intelligence[item.ID]
		if !ok {
			t.Fatalf("no intelligence for %s", item.ID)
		}
		if item.RelevanceScore != ci.ImportanceScore {
			t.Fatalf("relevance %v != importance %v for %s", item.RelevanceScore, ci.ImportanceScore, item.ID)
		}
	}
	if result.Intelligence["a"].ImportanceScore <= result.Intelligence["b"].ImportanceScore {
		t.Fatal("urgent outage must outrank lunch menu")
	}
}

func TestAnalyzeScoresAreBounded(t *testing.T) {
	t.Parallel()
	p := testPipeline()
	now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	batch := []*models.UnifiedDataItem{
		{ID: "a", Title: "URGENT critical emergency", Content: "production down asap, security breach", Author: "CTO", UpdatedAt: &now},
		{ID: "b", Title: "note", Content: "", Author: ""},
		{ID: "c", Title: "weekly digest", Content: "all quiet", Author: "bob"},
	}
	result := p.Analyze(batch)
	for id, ci := range result.Intelligence {
		if ci.ImportanceScore < 0 || ci.ImportanceScore > 1 {
			t.Fatalf("%s importance out of range: %v", id, ci.ImportanceScore)
		}
		if ci.UrgencyScore < 0 || ci.UrgencyScore > 1 {
			t.Fatalf("%s urgency out of range: %v", id, ci.UrgencyScore)
		}
		if ci.ConfidenceScore < 0 || ci.ConfidenceScore > 0.95 {
			t.Fatalf("%s confidence out of range: %v", id, ci.ConfidenceScore)
		}
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	t.Parallel()
	p := testPipeline()
	result := p.Analyze(nil)
	if len(result.Intelligence) != 0 || len(result.Trends) != 0 || len(result.Duplicates) != 0 {
		t.Fatalf("empty batch produced output: %#v", result)
	}
}

func TestAnalyzePopulatesExtraction(t *testing.T) {
	t.Parallel()
	p := testPipeline()
	batch := []*models.UnifiedDataItem{
		{ID: "a", Title: "Sprint check-in", Content: "todo: fix the flaky test\nwe are behind schedule"},
		{ID: "b", Title: "Ops digest", Content: "we could automate the failover runbook"},
	}
	result := p.Analyze(batch)

	a := result.Intelligence["a"]
	if len(a.ActionItems) == 0 {
		t.Fatalf("no actions extracted: %+v", a)
	}
	if len(a.RiskIndicators) == 0 {
		t.Fatalf("no risks extracted: %+v", a)
	}
	b := result.Intelligence["b"]
	if len(b.OpportunityIndicators) == 0 {
		t.Fatalf("no opportunities extracted: %+v", b)
	}
}
