package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/briefdhq/briefd/internal/pipeline"
)

func testIngestHandler(idx *staticIndex) *IngestHandler {
	return &IngestHandler{
		Normalizer: pipeline.NewNormalizer(log.New(io.Discard, "", 0)),
		Index:      idx,
	}
}

func TestIngestRequiresSourceType(t *testing.T) {
	h := testIngestHandler(&staticIndex{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/items/ingest", strings.NewReader(`{"payloads":[{"id":"1"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ingest(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestIngestRequiresPayloads(t *testing.T) {
	h := testIngestHandler(&staticIndex{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/items/ingest", strings.NewReader(`{"source_type":"chat"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ingest(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestIngestNormalizesAndIndexes(t *testing.T) {
	idx := &staticIndex{}
	h := testIngestHandler(idx)
	e := echo.New()
	body := `{"source_type":"chat","payloads":[
		{"id":"1","text":"deploy done","user_name":"dana"},
		{"id":"2","text":"standup at ten","user_name":"bob"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/items/ingest", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ingest(c); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["ingested"] != 2 {
		t.Fatalf("ingested = %d, want 2", resp["ingested"])
	}
	if len(idx.items) != 2 {
		t.Fatalf("indexed = %d, want 2", len(idx.items))
	}
	if idx.items[0].ID != "chat-1" {
		t.Fatalf("first item id = %q", idx.items[0].ID)
	}
}
