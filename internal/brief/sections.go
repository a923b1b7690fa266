package brief

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/briefdhq/briefd/models"
)

// sectionContext is the shared input for section generators. filtered holds
// the threshold-filtered items sorted by combined score; all holds every
// canonical item regardless of threshold (sections without a priority
// threshold, like recent activity, draw from it).
type sectionContext struct {
	cfg      models.BriefConfig
	filtered []scoredItem
	all      []scoredItem
	trends   map[string]*models.TrendAnalysis
	now      time.Time
}

type sectionBuilder func(*sectionContext) *models.BriefContent

var sectionBuilders = map[models.SectionType]sectionBuilder{
	models.SectionExecutiveSummary:   buildExecutiveSummary,
	models.SectionUrgentItems:        buildUrgentItems,
	models.SectionActionItems:        buildActionItems,
	models.SectionRecentActivity:     buildRecentActivity,
	models.SectionTeamUpdates:        buildTeamUpdates,
	models.SectionProjectStatus:      buildProjectStatus,
	models.SectionDevelopmentMetrics: buildDevelopmentMetrics,
	models.SectionDocumentUpdates:    buildDocumentUpdates,
	models.SectionCalendarHighlights: buildCalendarHighlights,
	models.SectionTrendingTopics:     buildTrendingTopics,
}

func buildExecutiveSummary(sctx *sectionContext) *models.BriefContent {
	if len(sctx.filtered) == 0 {
		return nil
	}
	top := truncate(sctx.filtered, sctx.cfg.MaxItemsPerSection)
	highPriority := 0
	for _, si := range sctx.filtered {
		if si.intel.ImportanceCategory == models.ImportanceCritical || si.intel.ImportanceCategory == models.ImportanceHigh {
			highPriority++
		}
	}
	return section(sctx, models.SectionExecutiveSummary, "Executive Summary", top,
		fmt.Sprintf("%d items above threshold, %d high priority, across %d sources",
			len(sctx.filtered), highPriority, len(sourceSet(sctx.filtered))))
}

// buildUrgentItems selects items with urgency above 0.5, ranked by urgency.
func buildUrgentItems(sctx *sectionContext) *models.BriefContent {
	var urgent []scoredItem
	for _, si := range sctx.filtered {
		if si.intel.UrgencyScore > 0.5 {
			urgent = append(urgent, si)
		}
	}
	if len(urgent) == 0 {
		return nil
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].intel.UrgencyScore > urgent[j].intel.UrgencyScore
	})
	items := make([]models.BriefItem, 0, len(urgent))
	for _, si := range truncate(urgent, sctx.cfg.MaxItemsPerSection) {
		bi := briefItem(si)
		bi.Score = si.intel.UrgencyScore
		items = append(items, bi)
	}
	return sectionFromItems(sctx, models.SectionUrgentItems, "Urgent Items", items, urgent,
		fmt.Sprintf("%d items need attention", len(urgent)))
}

// buildActionItems flattens extracted action items, ordered by the source
// item's priority.
func buildActionItems(sctx *sectionContext) *models.BriefContent {
	var items []models.BriefItem
	var contributing []scoredItem
	for _, si := range sctx.filtered {
		if len(si.intel.ActionItems) == 0 {
			continue
		}
		contributing = append(contributing, si)
		for _, action := range si.intel.ActionItems {
			items = append(items, models.BriefItem{
				ItemID:     si.item.ID,
				Title:      action,
				SourceType: si.item.SourceType,
				Author:     si.item.Author,
				Score:      si.combined,
				Snippet:    si.item.Title,
				UpdatedAt:  si.item.UpdatedAt,
			})
		}
	}
	if len(items) == 0 {
		return nil
	}
	if len(items) > sctx.cfg.MaxItemsPerSection {
		items = items[:sctx.cfg.MaxItemsPerSection]
	}
	return sectionFromItems(sctx, models.SectionActionItems, "Action Items", items, contributing,
		fmt.Sprintf("%d open actions", len(items)))
}

// buildRecentActivity has no priority threshold: it draws from the whole
// canonical batch, newest first.
func buildRecentActivity(sctx *sectionContext) *models.BriefContent {
	if len(sctx.all) == 0 {
		return nil
	}
	recent := make([]scoredItem, len(sctx.all))
	copy(recent, sctx.all)
	sort.SliceStable(recent, func(i, j int) bool {
		return itemTime(recent[i].item).After(itemTime(recent[j].item))
	})
	top := truncate(recent, sctx.cfg.MaxItemsPerSection)
	return section(sctx, models.SectionRecentActivity, "Recent Activity", top,
		fmt.Sprintf("%d items in the last %dh", len(sctx.all), sctx.cfg.TimeRangeHours))
}

func buildTeamUpdates(sctx *sectionContext) *models.BriefContent {
	team := filterBySource(sctx.filtered,
		models.SourceTypeChat, models.SourceTypeEmail, models.SourceTypeThread)
	if len(team) == 0 {
		return nil
	}
	return section(sctx, models.SectionTeamUpdates, "Team Updates",
		truncate(team, sctx.cfg.MaxItemsPerSection),
		fmt.Sprintf("%d conversations", len(team)))
}

func buildProjectStatus(sctx *sectionContext) *models.BriefContent {
	var project []scoredItem
	for _, si := range sctx.filtered {
		if si.item.SourceType == models.SourceTypeProject || hasCategory(si.item, "project_management") {
			project = append(project, si)
		}
	}
	if len(project) == 0 {
		return nil
	}
	return section(sctx, models.SectionProjectStatus, "Project Status",
		truncate(project, sctx.cfg.MaxItemsPerSection),
		fmt.Sprintf("%d project updates", len(project)))
}

func buildDevelopmentMetrics(sctx *sectionContext) *models.BriefContent {
	dev := filterBySource(sctx.filtered,
		models.SourceTypeIssue, models.SourceTypePullRequest, models.SourceTypeRepository)
	for _, si := range sctx.filtered {
		if hasCategory(si.item, "development") && si.item.SourceType != models.SourceTypeIssue &&
			si.item.SourceType != models.SourceTypePullRequest && si.item.SourceType != models.SourceTypeRepository {
			dev = append(dev, si)
		}
	}
	if len(dev) == 0 {
		return nil
	}
	issues, prs := 0, 0
	for _, si := range dev {
		switch si.item.SourceType {
		case models.SourceTypeIssue:
			issues++
		case models.SourceTypePullRequest:
			prs++
		}
	}
	return section(sctx, models.SectionDevelopmentMetrics, "Development Metrics",
		truncate(dev, sctx.cfg.MaxItemsPerSection),
		fmt.Sprintf("%d issues, %d pull requests active", issues, prs))
}

func buildDocumentUpdates(sctx *sectionContext) *models.BriefContent {
	docs := filterBySource(sctx.filtered, models.SourceTypeDocument)
	if len(docs) == 0 {
		return nil
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return itemTime(docs[i].item).After(itemTime(docs[j].item))
	})
	return section(sctx, models.SectionDocumentUpdates, "Document Updates",
		truncate(docs, sctx.cfg.MaxItemsPerSection),
		fmt.Sprintf("%d documents changed", len(docs)))
}

func buildCalendarHighlights(sctx *sectionContext) *models.BriefContent {
	var meetings []scoredItem
	for _, si := range sctx.filtered {
		if hasCategory(si.item, "meeting") {
			meetings = append(meetings, si)
		}
	}
	if len(meetings) == 0 {
		return nil
	}
	return section(sctx, models.SectionCalendarHighlights, "Calendar Highlights",
		truncate(meetings, sctx.cfg.MaxItemsPerSection),
		fmt.Sprintf("%d meetings and invites", len(meetings)))
}

// buildTrendingTopics renders the topic frequency table, most frequent first.
func buildTrendingTopics(sctx *sectionContext) *models.BriefContent {
	if len(sctx.trends) == 0 {
		return nil
	}
	trends := make([]*models.TrendAnalysis, 0, len(sctx.trends))
	for _, t := range sctx.trends {
		trends = append(trends, t)
	}
	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].Frequency == trends[j].Frequency {
			return trends[i].Topic < trends[j].Topic
		}
		return trends[i].Frequency > trends[j].Frequency
	})
	if len(trends) > sctx.cfg.MaxItemsPerSection {
		trends = trends[:sctx.cfg.MaxItemsPerSection]
	}
	items := make([]models.BriefItem, 0, len(trends))
	confidence := 0.0
	for _, t := range trends {
		items = append(items, models.BriefItem{
			ItemID:  "topic-" + t.Topic,
			Title:   t.Topic,
			Score:   t.Confidence,
			Snippet: fmt.Sprintf("%s, %d mentions, %.1f/h", t.TrendType, t.Frequency, t.Velocity),
		})
		confidence += t.Confidence
	}
	return &models.BriefContent{
		SectionID:   models.SectionTrendingTopics,
		Title:       "Trending Topics",
		Summary:     fmt.Sprintf("%d topics trending", len(items)),
		Items:       items,
		Priority:    float64(len(items)) / float64(sctx.cfg.MaxItemsPerSection),
		Confidence:  confidence / float64(len(items)),
		LastUpdated: sctx.now.UTC(),
	}
}

func section(sctx *sectionContext, id models.SectionType, title string, top []scoredItem, summary string) *models.BriefContent {
	items := make([]models.BriefItem, 0, len(top))
	for _, si := range top {
		items = append(items, briefItem(si))
	}
	return sectionFromItems(sctx, id, title, items, top, summary)
}

func sectionFromItems(sctx *sectionContext, id models.SectionType, title string, items []models.BriefItem, backing []scoredItem, summary string) *models.BriefContent {
	priority := 0.0
	confidence := 0.0
	for _, si := range backing {
		priority += si.combined
		confidence += si.intel.ConfidenceScore
	}
	if len(backing) > 0 {
		priority /= float64(len(backing))
		confidence /= float64(len(backing))
	}
	return &models.BriefContent{
		SectionID:   id,
		Title:       title,
		Summary:     summary,
		Items:       items,
		Priority:    priority,
		Confidence:  confidence,
		Sources:     sourceSet(backing),
		LastUpdated: sctx.now.UTC(),
	}
}

func briefItem(si scoredItem) models.BriefItem {
	title := si.item.Title
	if title == "" {
		title = snippet(si.item.Content, 80)
	}
	return models.BriefItem{
		ItemID:     si.item.ID,
		Title:      title,
		SourceType: si.item.SourceType,
		Author:     si.item.Author,
		Score:      si.combined,
		Snippet:    snippet(si.item.Content, 160),
		UpdatedAt:  si.item.UpdatedAt,
	}
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func truncate(items []scoredItem, max int) []scoredItem {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}

func filterBySource(items []scoredItem, types ...models.SourceType) []scoredItem {
	var out []scoredItem
	for _, si := range items {
		for _, t := range types {
			if si.item.SourceType == t {
				out = append(out, si)
				break
			}
		}
	}
	return out
}

func hasCategory(item *models.UnifiedDataItem, category string) bool {
	for _, c := range item.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func sourceSet(items []scoredItem) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, si := range items {
		s := string(si.item.SourceType)
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
