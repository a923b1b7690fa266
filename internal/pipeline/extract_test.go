package pipeline

import (
	"strings"
	"testing"

	"github.com/briefdhq/briefd/models"
)

func TestActionItemsExtracted(t *testing.T) {
	t.Parallel()
	e := NewExtractor()
	item := &models.UnifiedDataItem{
		Content: "TODO: update the runbook\nplease review the migration plan before friday",
	}
	actions := e.ActionItems(item)
	if len(actions) != 2 {
		t.Fatalf("actions = %#v", actions)
	}
	if actions[0] != "update the runbook" {
		t.Fatalf("first action = %q", actions[0])
	}
}

func TestActionItemsCappedAndTrimmed(t *testing.T) {
	t.Parallel()
	e := NewExtractor()
	long := strings.Repeat("x", 150)
	item := &models.UnifiedDataItem{
		Content: "todo: a1\ntodo: a2\ntodo: a3\ntodo: a4\ntodo: a5\ntodo: a6\ntodo: " + long,
	}
	actions := e.ActionItems(item)
	if len(actions) != 5 {
		t.Fatalf("action count = %d, want capped 5", len(actions))
	}
	for _, a := range actions {
		if len(a) > 100 {
			t.Fatalf("action not trimmed: %d chars", len(a))
		}
	}
}

func TestRiskIndicators(t *testing.T) {
	t.Parallel()
	e := NewExtractor()
	item := &models.UnifiedDataItem{
		Content: "the outage caused a regression and we are behind schedule",
	}
	risks := e.RiskIndicators(item)
	want := []string{"technical", "schedule", "quality"}
	if len(risks) != len(want) {
		t.Fatalf("risks = %#v, want %v", risks, want)
	}
	for i, r := range want {
		if risks[i] != r {
			t.Fatalf("risks = %#v, want %v", risks, want)
		}
	}
}

func TestOpportunityIndicators(t *testing.T) {
	t.Parallel()
	e := NewExtractor()
	item := &models.UnifiedDataItem{
		Content: "we could automate the deploy and reduce cost per release",
	}
	opps := e.OpportunityIndicators(item)
	want := []string{"efficiency", "cost_saving"}
	if len(opps) != len(want) {
		t.Fatalf("opportunities = %#v, want %v", opps, want)
	}
	for i, o := range want {
		if opps[i] != o {
			t.Fatalf("opportunities = %#v, want %v", opps, want)
		}
	}
}

func TestIndicatorsEmptyForNeutralText(t *testing.T) {
	t.Parallel()
	e := NewExtractor()
	item := &models.UnifiedDataItem{Content: "lunch menu for next month"}
	if got := e.RiskIndicators(item); len(got) != 0 {
		t.Fatalf("risks = %#v", got)
	}
	if got := e.OpportunityIndicators(item); len(got) != 0 {
		t.Fatalf("opportunities = %#v", got)
	}
}
