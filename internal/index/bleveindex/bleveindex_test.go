package bleveindex

import (
	"context"
	"testing"
	"time"

	"github.com/briefdhq/briefd/internal/index"
	"github.com/briefdhq/briefd/models"
)

func seedIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	now := time.Now().UTC()
	recent := now.Add(-1 * time.Hour)
	old := now.Add(-72 * time.Hour)
	items := []*models.UnifiedDataItem{
		{
			ID: "chat-1", SourceType: models.SourceTypeChat, ContentType: models.ContentTypeMessage,
			Title: "standup notes", Content: "deploy shipped", UpdatedAt: &recent, IndexedAt: recent,
		},
		{
			ID: "email-1", SourceType: models.SourceTypeEmail, ContentType: models.ContentTypeEmail,
			Title: "quarterly report", Content: "numbers attached", UpdatedAt: &recent, IndexedAt: recent,
			Tags: []string{"finance"},
		},
		{
			ID: "chat-2", SourceType: models.SourceTypeChat, ContentType: models.ContentTypeMessage,
			Title: "old thread", Content: "stale discussion", UpdatedAt: &old, IndexedAt: old,
		},
	}
	if err := idx.BulkIndex(context.Background(), items); err != nil {
		t.Fatalf("BulkIndex: %v", err)
	}
	return idx
}

func TestSearchBySourceType(t *testing.T) {
	idx := seedIndex(t)
	res, err := idx.Search(context.Background(), index.Query{
		SourceTypes: []models.SourceType{models.SourceTypeEmail},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 {
		t.Fatalf("total=%d items=%d, want 1/1", res.Total, len(res.Items))
	}
	if res.Items[0].ID != "email-1" {
		t.Fatalf("hit = %s", res.Items[0].ID)
	}
}

func TestSearchByDateRange(t *testing.T) {
	idx := seedIndex(t)
	res, err := idx.Search(context.Background(), index.Query{
		SourceTypes: []models.SourceType{models.SourceTypeChat},
		DateRange: &index.DateRange{
			Start: time.Now().Add(-24 * time.Hour),
			End:   time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "chat-1" {
		t.Fatalf("items = %#v", res.Items)
	}
}

func TestSearchByText(t *testing.T) {
	idx := seedIndex(t)
	res, err := idx.Search(context.Background(), index.Query{Text: "quarterly"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "email-1" {
		t.Fatalf("items = %#v", res.Items)
	}
}

func TestBulkIndexIdempotent(t *testing.T) {
	idx := seedIndex(t)
	now := time.Now().UTC()
	item := &models.UnifiedDataItem{
		ID: "chat-1", SourceType: models.SourceTypeChat, ContentType: models.ContentTypeMessage,
		Title: "standup notes v2", Content: "deploy shipped, metrics green", UpdatedAt: &now, IndexedAt: now,
	}
	if err := idx.BulkIndex(context.Background(), []*models.UnifiedDataItem{item}); err != nil {
		t.Fatalf("BulkIndex: %v", err)
	}
	res, err := idx.Search(context.Background(), index.Query{
		SourceTypes: []models.SourceType{models.SourceTypeChat},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2 after reindex of same id", res.Total)
	}
	for _, got := range res.Items {
		if got.ID == "chat-1" && got.Title != "standup notes v2" {
			t.Fatalf("stale item returned: %q", got.Title)
		}
	}
}
