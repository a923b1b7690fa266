package models

import (
	"errors"
	"time"
)

// ErrBriefNotFound is returned when a generated brief is not found
var ErrBriefNotFound = errors.New("brief not found")

// SourceType identifies the connector a unified item came from.
type SourceType string

const (
	SourceTypeChat        SourceType = "chat"
	SourceTypeEmail       SourceType = "email"
	SourceTypeDocument    SourceType = "document"
	SourceTypeIssue       SourceType = "issue"
	SourceTypePullRequest SourceType = "pull_request"
	SourceTypeRepository  SourceType = "repository"
	SourceTypeProject     SourceType = "project"
	SourceTypeContact     SourceType = "contact"
	SourceTypeThread      SourceType = "thread"
	SourceTypeUnknown     SourceType = "unknown"
)

// ContentType mirrors the shape of an item's content.
type ContentType string

const (
	ContentTypeMessage     ContentType = "message"
	ContentTypeEmail       ContentType = "email"
	ContentTypeDocument    ContentType = "document"
	ContentTypeIssue       ContentType = "issue"
	ContentTypePullRequest ContentType = "pull_request"
	ContentTypeRepository  ContentType = "repository"
	ContentTypeProject     ContentType = "project"
	ContentTypeContact     ContentType = "contact"
	ContentTypeThread      ContentType = "thread"
	ContentTypeUnknown     ContentType = "unknown"
)

// UnifiedDataItem is the canonical cross-source representation of one
// external content item. Connectors feed raw payloads into the normalizer,
// which produces exactly one of these per payload. Downstream stages mutate
// scores and duplicate markers in place; items are never deleted here.
type UnifiedDataItem struct {
	ID          string      `json:"id"`
	SourceType  SourceType  `json:"source_type"`
	SourceID    string      `json:"source_id"`
	ContentType ContentType `json:"content_type"`

	Title        string   `json:"title,omitempty"`
	Content      string   `json:"content,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Author       string   `json:"author,omitempty"`
	AuthorEmail  string   `json:"author_email,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Categories   []string `json:"categories,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	IndexedAt time.Time  `json:"indexed_at"`

	// SourceMetadata is an opaque connector-owned payload. The pipeline
	// never branches on its contents.
	SourceMetadata map[string]interface{} `json:"source_metadata,omitempty"`

	RelevanceScore float64 `json:"relevance_score"`
	FreshnessScore float64 `json:"freshness_score"`
	QualityScore   float64 `json:"quality_score"`

	ParentID   string   `json:"parent_id,omitempty"`
	ThreadID   string   `json:"thread_id,omitempty"`
	RelatedIDs []string `json:"related_ids,omitempty"`

	// DuplicateOf is empty for canonical items. A non-empty value marks the
	// item as a suppressed duplicate pointing at its canonical item.
	DuplicateOf              string  `json:"duplicate_of,omitempty"`
	DuplicateConfidence      float64 `json:"duplicate_confidence,omitempty"`
	ClassificationConfidence float64 `json:"classification_confidence"`
}

// IsDuplicate reports whether the item was suppressed by deduplication.
func (u *UnifiedDataItem) IsDuplicate() bool { return u.DuplicateOf != "" }

// ImportanceCategory buckets an importance score by fixed thresholds.
type ImportanceCategory string

const (
	ImportanceCritical ImportanceCategory = "critical"
	ImportanceHigh     ImportanceCategory = "high"
	ImportanceMedium   ImportanceCategory = "medium"
	ImportanceLow      ImportanceCategory = "low"
	ImportanceMinimal  ImportanceCategory = "minimal"
)

// UrgencyLevel labels the urgency window that produced an urgency score.
type UrgencyLevel string

const (
	UrgencyImmediate UrgencyLevel = "immediate"
	UrgencyToday     UrgencyLevel = "today"
	UrgencyThisWeek  UrgencyLevel = "this_week"
	UrgencySoon      UrgencyLevel = "soon"
	UrgencyNormal    UrgencyLevel = "normal"
)

// TrendType classifies a topic's trajectory across the batch.
type TrendType string

const (
	TrendEmerging   TrendType = "emerging"
	TrendEscalating TrendType = "escalating"
	TrendRecurring  TrendType = "recurring"
	TrendDeclining  TrendType = "declining"
	TrendStable     TrendType = "stable"
)

// ContentIntelligence is the per-item analysis result for one pipeline run.
// It is computed fresh each run and never persisted on the item itself.
type ContentIntelligence struct {
	ItemID                 string             `json:"item_id"`
	ImportanceScore        float64            `json:"importance_score"`
	ImportanceCategory     ImportanceCategory `json:"importance_category"`
	UrgencyLevel           UrgencyLevel       `json:"urgency_level"`
	UrgencyScore           float64            `json:"urgency_score"`
	TrendType              TrendType          `json:"trend_type,omitempty"`
	TrendScore             float64            `json:"trend_score"`
	ActionItems            []string           `json:"action_items,omitempty"`
	RiskIndicators         []string           `json:"risk_indicators,omitempty"`
	OpportunityIndicators  []string           `json:"opportunity_indicators,omitempty"`
	KeyTopics              []string           `json:"key_topics,omitempty"`
	SentimentScore         float64            `json:"sentiment_score"`
	ConfidenceScore        float64            `json:"confidence_score"`
	Reasoning              string             `json:"reasoning,omitempty"`
}

// TrendAnalysis aggregates one topic's occurrences across a batch.
type TrendAnalysis struct {
	Topic        string        `json:"topic"`
	TrendType    TrendType     `json:"trend_type"`
	Frequency    int           `json:"frequency"`
	Velocity     float64       `json:"velocity"`
	Confidence   float64       `json:"confidence"`
	RelatedItems []string      `json:"related_items"`
	TimeSpan     time.Duration `json:"time_span"`
}

// SectionType names a brief section generator.
type SectionType string

const (
	SectionExecutiveSummary   SectionType = "executive_summary"
	SectionUrgentItems        SectionType = "urgent_items"
	SectionActionItems        SectionType = "action_items"
	SectionRecentActivity     SectionType = "recent_activity"
	SectionTeamUpdates        SectionType = "team_updates"
	SectionProjectStatus      SectionType = "project_status"
	SectionDevelopmentMetrics SectionType = "development_metrics"
	SectionDocumentUpdates    SectionType = "document_updates"
	SectionCalendarHighlights SectionType = "calendar_highlights"
	SectionTrendingTopics     SectionType = "trending_topics"
)

// BriefConfig describes one brief generation request.
type BriefConfig struct {
	UserID             string        `json:"user_id"`
	OrgID              string        `json:"org_id"`
	BriefType          string        `json:"brief_type"`
	Sections           []SectionType `json:"sections"`
	MaxItemsPerSection int           `json:"max_items_per_section"`
	PriorityThreshold  float64       `json:"priority_threshold"`
	TimeRangeHours     int           `json:"time_range_hours"`
	IncludeSources     []SourceType  `json:"include_sources,omitempty"`
	ExcludeSources     []SourceType  `json:"exclude_sources,omitempty"`
}

// BriefItem is one ranked entry inside a brief section.
type BriefItem struct {
	ItemID     string     `json:"item_id"`
	Title      string     `json:"title"`
	SourceType SourceType `json:"source_type"`
	Author     string     `json:"author,omitempty"`
	Score      float64    `json:"score"`
	Snippet    string     `json:"snippet,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// BriefContent is one assembled brief section.
type BriefContent struct {
	SectionID   SectionType `json:"section_id"`
	Title       string      `json:"title"`
	Summary     string      `json:"summary,omitempty"`
	Items       []BriefItem `json:"items"`
	Priority    float64     `json:"priority"`
	Confidence  float64     `json:"confidence"`
	Sources     []string    `json:"sources,omitempty"`
	LastUpdated time.Time   `json:"last_updated"`
}

// GeneratedBrief is the final structured output handed to a renderer.
type GeneratedBrief struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	OrgID          string                 `json:"org_id"`
	BriefType      string                 `json:"brief_type"`
	Sections       []BriefContent         `json:"sections"`
	ContentHash    string                 `json:"content_hash"`
	GeneratedAt    time.Time              `json:"generated_at"`
	TimeRangeHours int                    `json:"time_range_hours"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}
