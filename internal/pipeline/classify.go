package pipeline

import (
	"strings"
	"time"

	"github.com/briefdhq/briefd/models"
)

// categoryKeywords maps each assigned category to its trigger keyword set.
// Sets are disjoint; multiple categories may co-occur on one item.
var categoryKeywords = map[string][]string{
	"urgent":             {"urgent", "asap", "critical", "emergency", "immediately", "right away", "blocker"},
	"meeting":            {"meeting", "standup", "sync call", "agenda", "calendar invite", "schedule a call", "all-hands"},
	"action_item":        {"todo", "action item", "follow up", "please review", "needs to be done", "due by"},
	"technical_issue":    {"bug", "error", "crash", "outage", "broken", "failure", "incident", "production down", "regression"},
	"project_management": {"milestone", "roadmap", "sprint", "backlog", "deliverable", "project plan", "kickoff"},
	"development":        {"deploy", "merge", "commit", "pull request", "release", "code review", "refactor"},
	"design":             {"mockup", "wireframe", "figma", "prototype", "user interface", "ux research"},
	"marketing":          {"campaign", "launch plan", "newsletter", "seo", "branding", "social media"},
}

// categoryOrder fixes evaluation order so category lists are stable for a
// given input.
var categoryOrder = []string{
	"urgent", "meeting", "action_item", "technical_issue",
	"project_management", "development", "design", "marketing",
}

const defaultClassificationConfidence = 0.8

// Classifier performs rule-based tagging and base quality/freshness scoring.
type Classifier struct {
	now func() time.Time
}

func NewClassifier() *Classifier {
	return &Classifier{now: time.Now}
}

// Classify mutates the item's categories from keyword membership against the
// case-folded title+content, then computes freshness, quality and a
// provisional relevance score. The relevance score is overwritten later by
// the importance scorer.
func (c *Classifier) Classify(item *models.UnifiedDataItem) {
	text := strings.ToLower(item.Title + " " + item.Content)

	for _, category := range categoryOrder {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(text, kw) {
				item.Categories = appendUnique(item.Categories, category)
				break
			}
		}
	}

	item.FreshnessScore = c.freshness(item)
	item.QualityScore = quality(item)
	item.RelevanceScore = 0.3*item.FreshnessScore + 0.7*item.QualityScore
	item.ClassificationConfidence = defaultClassificationConfidence
}

// freshness = max(0, 1 - ageDays/30), measured from updated_at.
// Items without a timestamp get the neutral 0.5.
func (c *Classifier) freshness(item *models.UnifiedDataItem) float64 {
	ts := item.UpdatedAt
	if ts == nil {
		ts = item.CreatedAt
	}
	if ts == nil {
		return 0.5
	}
	ageDays := c.now().Sub(*ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score := 1 - ageDays/30
	if score < 0 {
		return 0
	}
	return score
}

// quality is the sum of fixed per-field increments, capped at 1.0.
func quality(item *models.UnifiedDataItem) float64 {
	score := 0.0
	if item.Title != "" {
		score += 0.2
	}
	if len(item.Content) > 50 {
		score += 0.3
	}
	if item.Author != "" {
		score += 0.1
	}
	if len(item.Participants) > 0 {
		score += 0.1
	}
	if len(item.Tags) > 0 {
		score += 0.1
	}
	if len(item.Categories) > 0 {
		score += 0.1
	}
	if len(item.SourceMetadata) > 0 {
		score += 0.1
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}
