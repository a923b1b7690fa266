package pipeline

import (
	"regexp"
	"strings"

	"github.com/briefdhq/briefd/models"
)

const (
	maxActionItems   = 5
	maxActionItemLen = 100
)

// actionPatterns match phrases that read as work to be done. Capture group 1
// is the action text.
var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)todo:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)follow up:?\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\b(?:please|should|must|need to|needs to)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)\b(?:assign|schedule)\s+([^.!?\n]+)`),
}

var riskKeywords = map[string][]string{
	"technical":  {"bug", "outage", "crash", "vulnerability", "failure", "data loss", "breaking change"},
	"schedule":   {"delay", "behind schedule", "slipping", "overdue", "missed deadline", "at risk"},
	"resource":   {"understaffed", "shortage", "over capacity", "burnout", "attrition", "budget cut"},
	"quality":    {"regression", "defect", "rework", "flaky", "tech debt", "degraded"},
	"compliance": {"audit", "violation", "gdpr", "breach", "non-compliant", "legal review"},
}

var opportunityKeywords = map[string][]string{
	"efficiency":  {"automate", "streamline", "simplify", "speed up", "optimize"},
	"growth":      {"new market", "expansion", "upsell", "user growth", "adoption"},
	"innovation":  {"prototype", "experiment", "novel", "breakthrough", "new approach"},
	"cost_saving": {"cost saving", "reduce cost", "cheaper", "cut spend", "savings"},
}

var riskCategoryOrder = []string{"technical", "schedule", "resource", "quality", "compliance"}
var opportunityCategoryOrder = []string{"efficiency", "growth", "innovation", "cost_saving"}

// Extractor pulls action items, risk indicators and opportunity indicators
// from item text. Pure function of the text; downstream consumers treat the
// lists as unordered sets.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ActionItems returns matched action phrases, trimmed to 100 characters,
// deduplicated and capped at 5.
func (e *Extractor) ActionItems(item *models.UnifiedDataItem) []string {
	text := item.Title + "\n" + item.Content
	var out []string
	seen := make(map[string]struct{})
	for _, pat := range actionPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			action := strings.TrimSpace(m[1])
			if action == "" {
				continue
			}
			if len(action) > maxActionItemLen {
				action = action[:maxActionItemLen]
			}
			key := strings.ToLower(action)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, action)
			if len(out) >= maxActionItems {
				return out
			}
		}
	}
	return out
}

// RiskIndicators emits each risk category at most once per item.
func (e *Extractor) RiskIndicators(item *models.UnifiedDataItem) []string {
	return matchCategories(item, riskCategoryOrder, riskKeywords)
}

// OpportunityIndicators emits each opportunity category at most once per item.
func (e *Extractor) OpportunityIndicators(item *models.UnifiedDataItem) []string {
	return matchCategories(item, opportunityCategoryOrder, opportunityKeywords)
}

func matchCategories(item *models.UnifiedDataItem, order []string, sets map[string][]string) []string {
	text := strings.ToLower(item.Title + " " + item.Content)
	var out []string
	for _, category := range order {
		for _, kw := range sets[category] {
			if strings.Contains(text, kw) {
				out = append(out, category)
				break
			}
		}
	}
	return out
}
