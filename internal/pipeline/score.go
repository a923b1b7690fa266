package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/briefdhq/briefd/models"
)

// Importance category thresholds.
const (
	thresholdCritical = 0.85
	thresholdHigh     = 0.70
	thresholdMedium   = 0.50
	thresholdLow      = 0.30
)

// Neutral fallbacks applied when scoring a single item fails (spec'd recovery:
// the item keeps neutral scores rather than failing the batch).
const (
	fallbackImportance = 0.5
	fallbackConfidence = 0.3
)

var contentTypeWeights = map[models.ContentType]float64{
	models.ContentTypeIssue:       0.30,
	models.ContentTypePullRequest: 0.30,
	models.ContentTypeDocument:    0.25,
	models.ContentTypeEmail:       0.20,
	models.ContentTypeProject:     0.20,
	models.ContentTypeMessage:     0.15,
	models.ContentTypeThread:      0.15,
	models.ContentTypeRepository:  0.10,
	models.ContentTypeContact:     0.10,
	models.ContentTypeUnknown:     0.10,
}

var criticalKeywords = []string{
	"critical", "urgent", "emergency", "asap", "production down",
	"outage", "security breach", "data loss", "sev1",
}

var highImportanceKeywords = []string{
	"important", "priority", "deadline", "blocker", "escalation", "review needed",
}

var executiveTitles = []string{"ceo", "cto", "cfo", "coo", "chief", "vp", "vice president", "founder", "president"}
var managementTitles = []string{"manager", "director", "head of"}
var seniorTitles = []string{"senior", "staff", "principal", "lead"}

var categoryBonuses = map[string]float64{
	"urgent":             0.15,
	"technical_issue":    0.13,
	"action_item":        0.12,
	"meeting":            0.10,
	"project_management": 0.10,
	"development":        0.09,
	"design":             0.08,
	"marketing":          0.08,
}

// Urgency pattern families. Each carries the fixed score ceiling for its
// urgency window.
var urgencyPatterns = []struct {
	level models.UrgencyLevel
	score float64
	re    *regexp.Regexp
}{
	{models.UrgencyImmediate, 1.0, regexp.MustCompile(`(?i)\b(urgent|asap|immediately|right away|right now|emergency)\b`)},
	{models.UrgencyToday, 0.8, regexp.MustCompile(`(?i)\b(today|eod|end of day|by tonight)\b`)},
	{models.UrgencyThisWeek, 0.6, regexp.MustCompile(`(?i)\b(this week|by friday|end of week|eow)\b`)},
	{models.UrgencySoon, 0.4, regexp.MustCompile(`(?i)\b(soon|shortly|next few days|coming days)\b`)},
}

var deadlinePhrases = []struct {
	level  models.UrgencyLevel
	score  float64
	phrase string
}{
	{models.UrgencyImmediate, 0.9, "due today"},
	{models.UrgencyToday, 0.7, "due tomorrow"},
	{models.UrgencyToday, 0.7, "tomorrow"},
	{models.UrgencyThisWeek, 0.5, "due this week"},
	{models.UrgencySoon, 0.3, "next week"},
}

var positiveWords = []string{"great", "good", "excellent", "resolved", "fixed", "success", "improved", "thanks", "shipped", "win"}
var negativeWords = []string{"bad", "broken", "failed", "failure", "problem", "blocked", "angry", "worse", "delay", "risk"}

// Percentile normalization blend weights (absolute score vs batch rank).
// Importance rewards absolute signal most; trend rewards relative standing.
const (
	importanceRankWeight = 0.3
	urgencyRankWeight    = 0.2
	trendRankWeight      = 0.1
)

// Scorer computes multi-factor importance and urgency per item.
// AuthorityMap, when provided, overrides title-based author authority.
type Scorer struct {
	AuthorityMap map[string]float64
	now          func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// ScoreImportance returns the capped sum of independently weighted factors
// plus a human-readable reasoning trail.
func (s *Scorer) ScoreImportance(item *models.UnifiedDataItem, batch []*models.UnifiedDataItem) (float64, []string) {
	var reasons []string
	score := 0.0

	if w, ok := contentTypeWeights[item.ContentType]; ok {
		score += w
		reasons = append(reasons, fmt.Sprintf("content type %s (+%.2f)", item.ContentType, w))
	} else {
		score += 0.10
	}

	if kw := s.keywordWeight(item); kw > 0 {
		score += kw
		reasons = append(reasons, fmt.Sprintf("importance keywords (+%.2f)", kw))
	}

	authority := s.authorAuthority(item)
	score += authority
	if authority > 0.05 {
		reasons = append(reasons, fmt.Sprintf("author authority (+%.2f)", authority))
	}

	if audience := math.Min(0.02*float64(len(item.Participants)), 0.15); audience > 0 {
		score += audience
		reasons = append(reasons, fmt.Sprintf("audience of %d (+%.2f)", len(item.Participants), audience))
	}

	if length := math.Min(float64(len(item.Content))/2000, 1.0) * 0.1; length > 0 {
		score += length
	}

	if recency := s.recencyBonus(item); recency > 0 {
		score += recency
		reasons = append(reasons, fmt.Sprintf("recent activity (+%.2f)", recency))
	}

	if best, cat := bestCategoryBonus(item.Categories); best > 0 {
		score += best
		reasons = append(reasons, fmt.Sprintf("category %s (+%.2f)", cat, best))
	}

	if crossReferenced(item, batch) {
		score += 0.1
		reasons = append(reasons, "cross-referenced by other items (+0.10)")
	}

	return clamp01(score), reasons
}

// keywordWeight scores critical and high-importance keyword hits, capped at 0.4.
func (s *Scorer) keywordWeight(item *models.UnifiedDataItem) float64 {
	text := strings.ToLower(item.Title + " " + item.Content)
	weight := 0.0
	for _, kw := range criticalKeywords {
		if strings.Contains(text, kw) {
			weight += 0.15
		}
	}
	for _, kw := range highImportanceKeywords {
		if strings.Contains(text, kw) {
			weight += 0.08
		}
	}
	return math.Min(weight, 0.4)
}

// authorAuthority looks up the supplied authority map first, then falls back
// to title heuristics on the author string.
func (s *Scorer) authorAuthority(item *models.UnifiedDataItem) float64 {
	if s.AuthorityMap != nil {
		if v, ok := s.AuthorityMap[item.AuthorEmail]; ok {
			return v
		}
		if v, ok := s.AuthorityMap[item.Author]; ok {
			return v
		}
	}
	author := strings.ToLower(item.Author)
	for _, t := range executiveTitles {
		if strings.Contains(author, t) {
			return 0.20
		}
	}
	for _, t := range managementTitles {
		if strings.Contains(author, t) {
			return 0.15
		}
	}
	for _, t := range seniorTitles {
		if strings.Contains(author, t) {
			return 0.10
		}
	}
	return 0.05
}

// recencyBonus decays linearly from 0.1 to 0 over seven days.
func (s *Scorer) recencyBonus(item *models.UnifiedDataItem) float64 {
	ts := item.UpdatedAt
	if ts == nil {
		ts = item.CreatedAt
	}
	if ts == nil {
		return 0
	}
	ageDays := s.now().Sub(*ts).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	if ageDays >= 7 {
		return 0
	}
	return 0.1 * (1 - ageDays/7)
}

func bestCategoryBonus(categories []string) (float64, string) {
	best := 0.0
	name := ""
	for _, cat := range categories {
		if bonus, ok := categoryBonuses[cat]; ok && bonus > best {
			best = bonus
			name = cat
		}
	}
	return best, name
}

// crossReferenced reports whether at least two other batch items share two or
// more significant keywords with this item, or mention its title outright.
func crossReferenced(item *models.UnifiedDataItem, batch []*models.UnifiedDataItem) bool {
	keywords := significantWords(item.Title + " " + item.Content)
	title := strings.ToLower(strings.TrimSpace(item.Title))
	refs := 0
	for _, other := range batch {
		if other.ID == item.ID {
			continue
		}
		otherText := strings.ToLower(other.Title + " " + other.Content)
		if title != "" && strings.Contains(otherText, title) {
			refs++
			continue
		}
		shared := 0
		for kw := range keywords {
			if strings.Contains(otherText, kw) {
				shared++
				if shared >= 2 {
					break
				}
			}
		}
		if shared >= 2 {
			refs++
		}
		if refs >= 2 {
			return true
		}
	}
	return refs >= 2
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z-]{4,}`)

func significantWords(text string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(text), 24)
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// ImportanceCategoryFor buckets a score by the fixed thresholds.
func ImportanceCategoryFor(score float64) models.ImportanceCategory {
	switch {
	case score >= thresholdCritical:
		return models.ImportanceCritical
	case score >= thresholdHigh:
		return models.ImportanceHigh
	case score >= thresholdMedium:
		return models.ImportanceMedium
	case score >= thresholdLow:
		return models.ImportanceLow
	default:
		return models.ImportanceMinimal
	}
}

// ScoreUrgency returns the maximum across urgency-window patterns, deadline
// phrases, category floors and source-specific alert keywords, labeled with
// the level of whichever rule produced the maximum.
func (s *Scorer) ScoreUrgency(item *models.UnifiedDataItem) (float64, models.UrgencyLevel) {
	text := strings.ToLower(item.Title + " " + item.Content)
	score := 0.0
	level := models.UrgencyNormal

	for _, p := range urgencyPatterns {
		if p.re.MatchString(text) && p.score > score {
			score = p.score
			level = p.level
		}
	}
	for _, d := range deadlinePhrases {
		if strings.Contains(text, d.phrase) && d.score > score {
			score = d.score
			level = d.level
		}
	}
	for _, cat := range item.Categories {
		if (cat == "urgent" || cat == "technical_issue") && score < 0.7 {
			score = 0.7
			level = models.UrgencyToday
		}
	}
	if item.SourceType == models.SourceTypeChat {
		for _, kw := range []string{"alert", "notification", "warning"} {
			if strings.Contains(text, kw) && score < 0.6 {
				score = 0.6
				level = models.UrgencyThisWeek
			}
		}
	}
	return score, level
}

// Sentiment is a crude lexicon balance in [-1, 1].
func Sentiment(item *models.UnifiedDataItem) float64 {
	text := strings.ToLower(item.Title + " " + item.Content)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// PercentileNormalize rescales importance, urgency and trend scores against
// the batch: newScore = w*original + (1-w)*rank/(N-1). Each metric is ranked
// independently. Single-item batches keep their raw scores.
func PercentileNormalize(intels []*models.ContentIntelligence) {
	if len(intels) < 2 {
		return
	}
	normalizeMetric(intels, importanceRankWeight,
		func(ci *models.ContentIntelligence) float64 { return ci.ImportanceScore },
		func(ci *models.ContentIntelligence, v float64) {
			ci.ImportanceScore = v
			ci.ImportanceCategory = ImportanceCategoryFor(v)
		})
	normalizeMetric(intels, urgencyRankWeight,
		func(ci *models.ContentIntelligence) float64 { return ci.UrgencyScore },
		func(ci *models.ContentIntelligence, v float64) { ci.UrgencyScore = v })
	normalizeMetric(intels, trendRankWeight,
		func(ci *models.ContentIntelligence) float64 { return ci.TrendScore },
		func(ci *models.ContentIntelligence, v float64) { ci.TrendScore = v })
}

func normalizeMetric(intels []*models.ContentIntelligence, rankWeight float64, get func(*models.ContentIntelligence) float64, set func(*models.ContentIntelligence, float64)) {
	order := make([]int, len(intels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return get(intels[order[a]]) < get(intels[order[b]])
	})
	n := float64(len(intels) - 1)
	for rank, idx := range order {
		ci := intels[idx]
		normalized := (1-rankWeight)*get(ci) + rankWeight*(float64(rank)/n)
		set(ci, clamp01(normalized))
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
