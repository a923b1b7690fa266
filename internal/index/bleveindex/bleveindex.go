package bleveindex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/mapping"
	blevequery "github.com/blevesearch/bleve/search/query"

	"github.com/briefdhq/briefd/internal/index"
	"github.com/briefdhq/briefd/models"
)

// Index is a bleve-backed implementation of the aggregation index. Full
// items are kept in a side map keyed by id; bleve holds the searchable
// projection.
type Index struct {
	idx  bleve.Index
	meta map[string]*models.UnifiedDataItem
	mu   sync.RWMutex
}

// New opens or creates an index at path; an empty path builds an in-memory
// index.
func New(path string) (*Index, error) {
	m := buildMapping()
	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.New(path, m)
		if err == bleve.ErrorIndexPathExists {
			idx, err = bleve.Open(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return &Index{idx: idx, meta: make(map[string]*models.UnifiedDataItem)}, nil
}

func buildMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	dt := bleve.NewDateTimeFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("summary", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("author", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("source_type", kw)
	doc.AddFieldMappingsAt("content_type", kw)
	doc.AddFieldMappingsAt("tags", kw)
	doc.AddFieldMappingsAt("categories", kw)
	doc.AddFieldMappingsAt("updated_at", dt)

	m.DefaultMapping = doc
	return m
}

// BulkIndex upserts the searchable projection of each item. Idempotent on id.
func (b *Index) BulkIndex(ctx context.Context, items []*models.UnifiedDataItem) error {
	batch := b.idx.NewBatch()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(item.ID, projection(item)); err != nil {
			return fmt.Errorf("index %s: %w", item.ID, err)
		}
		b.meta[item.ID] = item
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("bleve batch: %w", err)
	}
	return nil
}

// Search runs the query and resolves hits back to full items.
func (b *Index) Search(ctx context.Context, q index.Query) (index.Result, error) {
	var clauses []blevequery.Query

	if q.Text != "" {
		clauses = append(clauses, bleve.NewQueryStringQuery(q.Text))
	}
	if len(q.SourceTypes) > 0 {
		clauses = append(clauses, termDisjunction("source_type", sourceTypeStrings(q.SourceTypes)))
	}
	if len(q.ContentTypes) > 0 {
		terms := make([]string, 0, len(q.ContentTypes))
		for _, ct := range q.ContentTypes {
			terms = append(terms, string(ct))
		}
		clauses = append(clauses, termDisjunction("content_type", terms))
	}
	if len(q.Tags) > 0 {
		clauses = append(clauses, termDisjunction("tags", q.Tags))
	}
	if len(q.Categories) > 0 {
		clauses = append(clauses, termDisjunction("categories", q.Categories))
	}
	if q.DateRange != nil {
		start := q.DateRange.Start
		end := q.DateRange.End
		if start.IsZero() {
			start = time.Unix(0, 0)
		}
		if end.IsZero() {
			end = time.Now().Add(24 * time.Hour)
		}
		drq := bleve.NewDateRangeQuery(start, end)
		drq.SetField("updated_at")
		clauses = append(clauses, drq)
	}

	var final blevequery.Query
	switch len(clauses) {
	case 0:
		final = bleve.NewMatchAllQuery()
	case 1:
		final = clauses[0]
	default:
		final = bleve.NewConjunctionQuery(clauses...)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	req := bleve.NewSearchRequestOptions(final, limit, q.Offset, false)
	res, err := b.idx.SearchInContext(ctx, req)
	if err != nil {
		return index.Result{}, fmt.Errorf("bleve search: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	out := index.Result{Total: int(res.Total)}
	for _, hit := range res.Hits {
		if item, ok := b.meta[hit.ID]; ok {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

// Close releases the underlying bleve index.
func (b *Index) Close() error {
	return b.idx.Close()
}

func termDisjunction(field string, terms []string) blevequery.Query {
	qs := make([]blevequery.Query, 0, len(terms))
	for _, t := range terms {
		tq := bleve.NewTermQuery(t)
		tq.SetField(field)
		qs = append(qs, tq)
	}
	if len(qs) == 1 {
		return qs[0]
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func sourceTypeStrings(types []models.SourceType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

// projection is the searchable subset of an item. The updated_at field falls
// back to indexed time so date filters always have something to match.
func projection(item *models.UnifiedDataItem) map[string]interface{} {
	updated := item.IndexedAt
	if item.UpdatedAt != nil {
		updated = *item.UpdatedAt
	}
	return map[string]interface{}{
		"title":        item.Title,
		"content":      item.Content,
		"summary":      item.Summary,
		"author":       item.Author,
		"source_type":  string(item.SourceType),
		"content_type": string(item.ContentType),
		"tags":         item.Tags,
		"categories":   item.Categories,
		"updated_at":   updated,
	}
}
