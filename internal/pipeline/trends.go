package pipeline

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/briefdhq/briefd/models"
)

const maxTopicsPerItem = 10

// topicPatterns capture project/system/person/issue/deadline/meeting mentions.
var topicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bproject\s+([a-z][\w-]{2,})`),
	regexp.MustCompile(`(?i)\b([a-z][\w-]{2,})\s+(?:system|service|server|pipeline|database)\b`),
	regexp.MustCompile(`@([a-zA-Z][\w.-]{2,})`),
	regexp.MustCompile(`(?i)\b(?:issue|ticket|bug)\s*#?(\d+)\b`),
	regexp.MustCompile(`(?i)\b(?:deadline|due)\s+(?:for\s+)?([a-z][\w-]{2,})`),
	regexp.MustCompile(`(?i)\b(standup|retrospective|all-hands|planning|postmortem)\b`),
}

// TrendAnalyzer builds a cross-batch topic timeline and classifies each
// topic's trajectory.
type TrendAnalyzer struct {
	now func() time.Time
}

func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{now: time.Now}
}

// ExtractTopics returns the case-folded, deduplicated topics for one item:
// pattern captures unioned with the item's tags and categories, capped at 10.
func (a *TrendAnalyzer) ExtractTopics(item *models.UnifiedDataItem) []string {
	text := item.Title + " " + item.Content
	var topics []string
	for _, pat := range topicPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			if len(m) > 1 && m[1] != "" {
				topics = appendUnique(topics, strings.ToLower(m[1]))
			}
		}
	}
	for _, tag := range item.Tags {
		topics = appendUnique(topics, strings.ToLower(tag))
	}
	for _, cat := range item.Categories {
		topics = appendUnique(topics, strings.ToLower(cat))
	}
	if len(topics) > maxTopicsPerItem {
		topics = topics[:maxTopicsPerItem]
	}
	return topics
}

type occurrence struct {
	itemID string
	at     time.Time
}

// Analyze returns one TrendAnalysis per topic that occurs in at least two
// items. Occurrence time is the item's updated timestamp, falling back to
// created and then indexed time.
func (a *TrendAnalyzer) Analyze(items []*models.UnifiedDataItem) map[string]*models.TrendAnalysis {
	byTopic := make(map[string][]occurrence)
	for _, item := range items {
		at := effectiveTime(item)
		for _, topic := range a.ExtractTopics(item) {
			byTopic[topic] = append(byTopic[topic], occurrence{itemID: item.ID, at: at})
		}
	}

	out := make(map[string]*models.TrendAnalysis)
	for topic, occs := range byTopic {
		if len(occs) < 2 {
			continue
		}
		sort.Slice(occs, func(i, j int) bool { return occs[i].at.Before(occs[j].at) })

		span := occs[len(occs)-1].at.Sub(occs[0].at)
		frequency := len(occs)
		velocity := float64(frequency)
		if span > 0 {
			velocity = float64(frequency) / span.Hours()
		}

		trendType := a.classify(occs)
		confidence := math.Min(float64(frequency)/10, 1.0)
		if trendType == models.TrendEscalating || trendType == models.TrendEmerging {
			confidence = math.Min(confidence+0.2, 1.0)
		}

		related := make([]string, 0, len(occs))
		for _, o := range occs {
			related = append(related, o.itemID)
		}
		out[topic] = &models.TrendAnalysis{
			Topic:        topic,
			TrendType:    trendType,
			Frequency:    frequency,
			Velocity:     velocity,
			Confidence:   confidence,
			RelatedItems: related,
			TimeSpan:     span,
		}
	}
	return out
}

// classify decides the trajectory from occurrence intervals:
// shrinking intervals escalate, growing intervals decline, a recent burst is
// emerging, low interval variance is recurring, anything else is stable.
func (a *TrendAnalyzer) classify(occs []occurrence) models.TrendType {
	intervals := make([]float64, 0, len(occs)-1)
	for i := 1; i < len(occs); i++ {
		intervals = append(intervals, occs[i].at.Sub(occs[i-1].at).Hours())
	}

	if len(intervals) >= 2 {
		half := len(intervals) / 2
		early := mean(intervals[:half])
		recent := mean(intervals[half:])
		if early > 0 {
			if recent < 0.5*early {
				return models.TrendEscalating
			}
			if recent > 2.0*early {
				return models.TrendDeclining
			}
		}
	}

	cutoff := a.now().Add(-6 * time.Hour)
	recentCount := 0
	for _, o := range occs {
		if o.at.After(cutoff) {
			recentCount++
		}
	}
	if float64(recentCount) >= 0.8*float64(len(occs)) {
		return models.TrendEmerging
	}

	if len(intervals) >= 2 {
		m := mean(intervals)
		if m > 0 && math.Sqrt(variance(intervals, m)) < 0.5*m {
			return models.TrendRecurring
		}
	}
	return models.TrendStable
}

func effectiveTime(item *models.UnifiedDataItem) time.Time {
	if item.UpdatedAt != nil {
		return *item.UpdatedAt
	}
	if item.CreatedAt != nil {
		return *item.CreatedAt
	}
	return item.IndexedAt
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs))
}
