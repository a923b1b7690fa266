package index

import (
	"context"
	"time"

	"github.com/briefdhq/briefd/models"
)

// DateRange bounds a query window; zero values mean unbounded.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Query is the narrow search contract the pipeline requires from the
// upstream index backend.
type Query struct {
	Text         string
	ContentTypes []models.ContentType
	SourceTypes  []models.SourceType
	DateRange    *DateRange
	Tags         []string
	Categories   []string
	Limit        int
	Offset       int
}

// Result is one page of matching items plus the total match count.
type Result struct {
	Total int
	Items []*models.UnifiedDataItem
}

// Index is the upstream collaborator interface: a query capability and a
// bulk write capability, both idempotent on item id.
type Index interface {
	Search(ctx context.Context, q Query) (Result, error)
	BulkIndex(ctx context.Context, items []*models.UnifiedDataItem) error
}
