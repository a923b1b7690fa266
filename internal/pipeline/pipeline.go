package pipeline

import (
	"fmt"
	"log"
	"strings"

	"github.com/briefdhq/briefd/models"
)

// Pipeline runs the full analysis sequence over a materialized batch:
// dedup -> trend analysis -> per-item scoring and extraction. Deduplication
// and trend analysis need the whole batch; scoring and extraction are
// independent per item.
type Pipeline struct {
	Dedup     *Deduplicator
	Trends    *TrendAnalyzer
	Scorer    *Scorer
	Extractor *Extractor
	Logger    *log.Logger
}

func New(logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	return &Pipeline{
		Dedup:     NewDeduplicator(),
		Trends:    NewTrendAnalyzer(),
		Scorer:    NewScorer(),
		Extractor: NewExtractor(),
		Logger:    logger,
	}
}

// Result carries everything one analysis run produced.
type Result struct {
	// Intelligence holds per-item analysis for canonical items only.
	Intelligence map[string]*models.ContentIntelligence
	// Trends maps topic -> batch-wide trend analysis.
	Trends map[string]*models.TrendAnalysis
	// Duplicates maps canonical item id -> suppressed duplicate ids.
	Duplicates map[string][]string
}

// Analyze mutates the batch (duplicate markers) and returns fresh
// intelligence for every canonical item. A scoring failure on one item
// downgrades that item to neutral defaults instead of failing the batch.
func (p *Pipeline) Analyze(batch []*models.UnifiedDataItem) *Result {
	duplicates := p.Dedup.Deduplicate(batch)
	canonical := Canonical(batch)
	trends := p.Trends.Analyze(canonical)

	intelligence := make(map[string]*models.ContentIntelligence, len(canonical))
	intels := make([]*models.ContentIntelligence, 0, len(canonical))
	for _, item := range canonical {
		ci := p.scoreItem(item, canonical, trends)
		intelligence[item.ID] = ci
		intels = append(intels, ci)
	}

	PercentileNormalize(intels)
	for _, item := range canonical {
		if ci, ok := intelligence[item.ID]; ok {
			item.RelevanceScore = ci.ImportanceScore
		}
	}

	return &Result{
		Intelligence: intelligence,
		Trends:       trends,
		Duplicates:   duplicates,
	}
}

// scoreItem computes one item's intelligence, falling back to neutral
// defaults if any scoring sub-step panics.
func (p *Pipeline) scoreItem(item *models.UnifiedDataItem, batch []*models.UnifiedDataItem, trends map[string]*models.TrendAnalysis) (ci *models.ContentIntelligence) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Printf("scoring %s failed, using neutral defaults: %v", item.ID, r)
			ci = &models.ContentIntelligence{
				ItemID:             item.ID,
				ImportanceScore:    fallbackImportance,
				ImportanceCategory: ImportanceCategoryFor(fallbackImportance),
				UrgencyLevel:       models.UrgencyNormal,
				ConfidenceScore:    fallbackConfidence,
				Reasoning:          "scoring failed, neutral defaults applied",
			}
		}
	}()

	importance, reasons := p.Scorer.ScoreImportance(item, batch)
	urgencyScore, urgencyLevel := p.Scorer.ScoreUrgency(item)
	topics := p.Trends.ExtractTopics(item)

	var trendType models.TrendType
	trendScore := 0.0
	for _, topic := range topics {
		if ta, ok := trends[topic]; ok && ta.Confidence > trendScore {
			trendScore = ta.Confidence
			trendType = ta.TrendType
		}
	}

	actions := p.Extractor.ActionItems(item)
	risks := p.Extractor.RiskIndicators(item)
	opportunities := p.Extractor.OpportunityIndicators(item)

	confidence := confidenceFor(item, len(reasons))

	if urgencyLevel != models.UrgencyNormal {
		reasons = append(reasons, fmt.Sprintf("urgency window %s (%.2f)", urgencyLevel, urgencyScore))
	}
	if trendType != "" {
		reasons = append(reasons, fmt.Sprintf("topic trend %s (%.2f)", trendType, trendScore))
	}

	return &models.ContentIntelligence{
		ItemID:                item.ID,
		ImportanceScore:       importance,
		ImportanceCategory:    ImportanceCategoryFor(importance),
		UrgencyLevel:          urgencyLevel,
		UrgencyScore:          urgencyScore,
		TrendType:             trendType,
		TrendScore:            trendScore,
		ActionItems:           actions,
		RiskIndicators:        risks,
		OpportunityIndicators: opportunities,
		KeyTopics:             topics,
		SentimentScore:        Sentiment(item),
		ConfidenceScore:       confidence,
		Reasoning:             strings.Join(reasons, "; "),
	}
}

// confidenceFor grows with the amount of signal available on the item.
func confidenceFor(item *models.UnifiedDataItem, signals int) float64 {
	c := 0.3 + 0.1*float64(signals)
	if item.QualityScore > 0.7 {
		c += 0.1
	}
	if c > 0.95 {
		return 0.95
	}
	return c
}
