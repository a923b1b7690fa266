package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/briefdhq/briefd/config"
	"github.com/briefdhq/briefd/internal/brief"
	"github.com/briefdhq/briefd/internal/cache/inmemory"
	"github.com/briefdhq/briefd/internal/index"
	"github.com/briefdhq/briefd/internal/pipeline"
	"github.com/briefdhq/briefd/internal/store"
	"github.com/briefdhq/briefd/models"
)

type staticIndex struct {
	items []*models.UnifiedDataItem
}

func (s *staticIndex) Search(_ context.Context, q index.Query) (index.Result, error) {
	var out []*models.UnifiedDataItem
	for _, item := range s.items {
		for _, st := range q.SourceTypes {
			if item.SourceType == st {
				out = append(out, item)
			}
		}
	}
	return index.Result{Total: len(out), Items: out}, nil
}

func (s *staticIndex) BulkIndex(_ context.Context, items []*models.UnifiedDataItem) error {
	s.items = append(s.items, items...)
	return nil
}

func testBriefsHandler(idx index.Index, st *store.Store) *BriefsHandler {
	return &BriefsHandler{
		Assembler: brief.NewAssembler(brief.Options{
			Index:    idx,
			Pipeline: pipeline.New(log.New(io.Discard, "", 0)),
			Cache:    inmemory.New(),
			Logger:   log.New(io.Discard, "", 0),
		}),
		Store:    st,
		Defaults: config.BriefConfig{}.Normalize(),
	}
}

func TestGenerateRequiresUserID(t *testing.T) {
	h := testBriefsHandler(&staticIndex{}, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/briefs/generate", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.generate(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestGenerateReturnsBrief(t *testing.T) {
	now := time.Now().UTC()
	idx := &staticIndex{items: []*models.UnifiedDataItem{
		{
			ID: "chat-1", SourceType: models.SourceTypeChat, ContentType: models.ContentTypeMessage,
			Title: "URGENT: checkout failing", Content: "errors spiking, fix asap",
			Author: "dana", UpdatedAt: &now, IndexedAt: now,
		},
	}}
	h := testBriefsHandler(idx, nil)
	e := echo.New()
	body := `{"user_id":"u1","include_sources":["chat"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/briefs/generate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.generate(c); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got models.GeneratedBrief
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "u1" || got.BriefType != "daily" {
		t.Fatalf("brief = %+v", got)
	}
	if got.ID == "" || got.ContentHash == "" {
		t.Fatal("brief missing id or content hash")
	}
}

func TestGetBriefNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM briefs WHERE id=$1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	h := testBriefsHandler(&staticIndex{}, &store.Store{DB: db})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/briefs/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	got := h.get(c)
	he, ok := got.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", got)
	}
}

func TestListBriefsRequiresUserID(t *testing.T) {
	h := testBriefsHandler(&staticIndex{}, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/briefs", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.list(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}
