package brief

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/briefdhq/briefd/internal/cache"
	"github.com/briefdhq/briefd/internal/index"
	"github.com/briefdhq/briefd/internal/pipeline"
	"github.com/briefdhq/briefd/internal/store"
	"github.com/briefdhq/briefd/internal/telemetry"
	"github.com/briefdhq/briefd/models"
)

// Combined score blend used for intelligence filtering and ranking.
const (
	importanceWeight = 0.4
	urgencyWeight    = 0.3
	trendWeight      = 0.2
	freshnessWeight  = 0.1
)

// ErrNoSources is returned when every configured source fetch fails.
var ErrNoSources = fmt.Errorf("aggregation failed: no sources reachable")

// defaultSources is the aggregation fan-out when a request does not restrict
// source types.
var defaultSources = []models.SourceType{
	models.SourceTypeChat,
	models.SourceTypeEmail,
	models.SourceTypeDocument,
	models.SourceTypeIssue,
	models.SourceTypePullRequest,
	models.SourceTypeProject,
	models.SourceTypeThread,
}

// Assembler generates briefs: aggregate -> intelligence-filter ->
// section-build -> finalize. A short-TTL cache keyed by the request
// parameters short-circuits the whole sequence.
type Assembler struct {
	Index    index.Index
	Pipeline *pipeline.Pipeline
	Cache    cache.BriefCache
	Archive  *store.Store
	Metrics  *telemetry.Metrics
	Logger   *log.Logger

	CacheTTL      time.Duration
	MaxBatchItems int

	now func() time.Time
}

// Options bundles the assembler's collaborators. Archive and Metrics are
// optional.
type Options struct {
	Index         index.Index
	Pipeline      *pipeline.Pipeline
	Cache         cache.BriefCache
	Archive       *store.Store
	Metrics       *telemetry.Metrics
	Logger        *log.Logger
	CacheTTL      time.Duration
	MaxBatchItems int
}

func NewAssembler(opts Options) *Assembler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[ASSEMBLER] ", log.LstdFlags)
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxItems := opts.MaxBatchItems
	if maxItems <= 0 {
		maxItems = 1000
	}
	p := opts.Pipeline
	if p == nil {
		p = pipeline.New(nil)
	}
	return &Assembler{
		Index:         opts.Index,
		Pipeline:      p,
		Cache:         opts.Cache,
		Archive:       opts.Archive,
		Metrics:       opts.Metrics,
		Logger:        logger,
		CacheTTL:      ttl,
		MaxBatchItems: maxItems,
		now:           time.Now,
	}
}

// scoredItem pairs a canonical item with its intelligence and the combined
// ranking score.
type scoredItem struct {
	item     *models.UnifiedDataItem
	intel    *models.ContentIntelligence
	combined float64
}

// Generate produces one brief for the request. A brief is always returned if
// at least one source fetch succeeds; failed sources are logged and recorded
// in generation metadata.
func (a *Assembler) Generate(ctx context.Context, cfg models.BriefConfig) (*models.GeneratedBrief, error) {
	cfg = a.withDefaults(cfg)
	started := a.now()

	key := cache.Key(cfg.UserID, cfg.OrgID, cfg.BriefType, cfg.TimeRangeHours)
	if a.Cache != nil {
		if cached, ok, err := a.Cache.Get(ctx, key); err == nil && ok {
			if a.Metrics != nil {
				a.Metrics.CacheHits.Inc()
			}
			return cached, nil
		} else if err != nil {
			a.Logger.Printf("cache get %s: %v", key, err)
		}
		if a.Metrics != nil {
			a.Metrics.CacheMisses.Inc()
		}
	}

	batch, sourcesUsed, fetchErrors, err := a.aggregate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result := a.Pipeline.Analyze(batch)
	if a.Metrics != nil {
		for _, dups := range result.Duplicates {
			a.Metrics.DuplicatesFound.Add(float64(len(dups)))
		}
	}

	all, filtered := a.rank(batch, result, cfg.PriorityThreshold)

	sctx := &sectionContext{
		cfg:      cfg,
		filtered: filtered,
		all:      all,
		trends:   result.Trends,
		now:      a.now(),
	}
	var sections []models.BriefContent
	for _, sectionType := range cfg.Sections {
		content := a.buildSection(sectionType, sctx)
		if content != nil {
			sections = append(sections, *content)
		}
	}

	brief := &models.GeneratedBrief{
		ID:             uuid.NewString(),
		UserID:         cfg.UserID,
		OrgID:          cfg.OrgID,
		BriefType:      cfg.BriefType,
		Sections:       sections,
		ContentHash:    contentHash(sections),
		GeneratedAt:    a.now().UTC(),
		TimeRangeHours: cfg.TimeRangeHours,
		Metadata: map[string]interface{}{
			"sources_used":    sourcesUsed,
			"fetch_errors":    fetchErrors,
			"item_count":      len(all),
			"filtered_count":  len(filtered),
			"duplicate_count": len(batch) - len(all),
		},
	}

	if a.Cache != nil {
		if err := a.Cache.Set(ctx, key, brief, a.CacheTTL); err != nil {
			a.Logger.Printf("cache set %s: %v", key, err)
		}
	}
	if a.Archive != nil {
		if err := a.Archive.SaveBrief(ctx, brief); err != nil {
			a.Logger.Printf("archive brief %s: %v", brief.ID, err)
		}
	}
	if a.Metrics != nil {
		a.Metrics.BriefsGenerated.WithLabelValues(cfg.BriefType).Inc()
		a.Metrics.GenerationSeconds.Observe(a.now().Sub(started).Seconds())
	}
	return brief, nil
}

func (a *Assembler) withDefaults(cfg models.BriefConfig) models.BriefConfig {
	if cfg.BriefType == "" {
		cfg.BriefType = "daily"
	}
	if cfg.TimeRangeHours <= 0 {
		cfg.TimeRangeHours = 24
	}
	if cfg.MaxItemsPerSection <= 0 {
		cfg.MaxItemsPerSection = 10
	}
	if len(cfg.Sections) == 0 {
		cfg.Sections = []models.SectionType{
			models.SectionExecutiveSummary,
			models.SectionUrgentItems,
			models.SectionActionItems,
			models.SectionRecentActivity,
			models.SectionTrendingTopics,
		}
	}
	return cfg
}

// aggregate fetches the configured time window from the index, one query per
// source type in parallel. One failed source skips its contribution; only
// total failure aborts generation.
func (a *Assembler) aggregate(ctx context.Context, cfg models.BriefConfig) ([]*models.UnifiedDataItem, []string, map[string]string, error) {
	sources := cfg.IncludeSources
	if len(sources) == 0 {
		sources = defaultSources
	}
	if len(cfg.ExcludeSources) > 0 {
		excluded := make(map[models.SourceType]struct{}, len(cfg.ExcludeSources))
		for _, s := range cfg.ExcludeSources {
			excluded[s] = struct{}{}
		}
		kept := sources[:0:0]
		for _, s := range sources {
			if _, ok := excluded[s]; !ok {
				kept = append(kept, s)
			}
		}
		sources = kept
	}
	if len(sources) == 0 {
		return nil, nil, nil, fmt.Errorf("no source types after filtering")
	}

	window := &index.DateRange{
		Start: a.now().Add(-time.Duration(cfg.TimeRangeHours) * time.Hour),
		End:   a.now(),
	}

	type fetchResult struct {
		source models.SourceType
		items  []*models.UnifiedDataItem
		err    error
	}
	results := make(chan fetchResult, len(sources))
	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func(st models.SourceType) {
			defer wg.Done()
			res, err := a.Index.Search(ctx, index.Query{
				SourceTypes: []models.SourceType{st},
				DateRange:   window,
				Limit:       a.MaxBatchItems,
			})
			results <- fetchResult{source: st, items: res.Items, err: err}
		}(source)
	}
	wg.Wait()
	close(results)

	var batch []*models.UnifiedDataItem
	seen := make(map[string]struct{})
	var sourcesUsed []string
	fetchErrors := make(map[string]string)
	for r := range results {
		if r.err != nil {
			a.Logger.Printf("fetch %s failed, skipping for this run: %v", r.source, r.err)
			fetchErrors[string(r.source)] = r.err.Error()
			if a.Metrics != nil {
				a.Metrics.SourceFetchErrors.WithLabelValues(string(r.source)).Inc()
			}
			continue
		}
		sourcesUsed = append(sourcesUsed, string(r.source))
		for _, item := range r.items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			batch = append(batch, item)
		}
	}
	if len(sourcesUsed) == 0 {
		return nil, nil, nil, ErrNoSources
	}
	sort.Strings(sourcesUsed)

	// Item identity makes fan-in commutative; restore a stable order before
	// the order-sensitive dedup stage.
	sort.SliceStable(batch, func(i, j int) bool {
		ti, tj := itemTime(batch[i]), itemTime(batch[j])
		if ti.Equal(tj) {
			return batch[i].ID < batch[j].ID
		}
		return ti.Before(tj)
	})
	if len(batch) > a.MaxBatchItems {
		batch = batch[:a.MaxBatchItems]
	}
	return batch, sourcesUsed, fetchErrors, nil
}

// rank attaches intelligence and combined scores, returning both the full
// canonical set and the threshold-filtered set sorted descending.
func (a *Assembler) rank(batch []*models.UnifiedDataItem, result *pipeline.Result, threshold float64) (all, filtered []scoredItem) {
	for _, item := range batch {
		intel, ok := result.Intelligence[item.ID]
		if !ok {
			continue // suppressed duplicate
		}
		combined := importanceWeight*intel.ImportanceScore +
			urgencyWeight*intel.UrgencyScore +
			trendWeight*intel.TrendScore +
			freshnessWeight*item.FreshnessScore
		all = append(all, scoredItem{item: item, intel: intel, combined: combined})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].combined > all[j].combined })
	for _, si := range all {
		if si.combined >= threshold {
			filtered = append(filtered, si)
		}
	}
	return all, filtered
}

// buildSection runs one section generator, swallowing a panic so a single
// failing section is omitted rather than failing the brief.
func (a *Assembler) buildSection(sectionType models.SectionType, sctx *sectionContext) (content *models.BriefContent) {
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Printf("section %s failed, omitting: %v", sectionType, r)
			content = nil
		}
	}()
	builder, ok := sectionBuilders[sectionType]
	if !ok {
		a.Logger.Printf("unknown section type %s, omitting", sectionType)
		return nil
	}
	return builder(sctx)
}

// contentHash fingerprints a brief by its (sectionId, title, itemCount)
// tuples for cache and version identity.
func contentHash(sections []models.BriefContent) string {
	h := sha256.New()
	for _, s := range sections {
		fmt.Fprintf(h, "%s|%s|%d;", s.SectionID, s.Title, len(s.Items))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func itemTime(item *models.UnifiedDataItem) time.Time {
	if item.UpdatedAt != nil {
		return *item.UpdatedAt
	}
	if item.CreatedAt != nil {
		return *item.CreatedAt
	}
	return item.IndexedAt
}
