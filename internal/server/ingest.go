package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/briefdhq/briefd/internal/index"
	"github.com/briefdhq/briefd/internal/pipeline"
	"github.com/briefdhq/briefd/internal/store"
	"github.com/briefdhq/briefd/internal/telemetry"
	"github.com/briefdhq/briefd/models"
)

// IngestHandler accepts raw per-source payload batches from connectors,
// normalizes them and writes them to the index and the archive.
type IngestHandler struct {
	Normalizer *pipeline.Normalizer
	Index      index.Index
	Store      *store.Store
	Metrics    *telemetry.Metrics
}

func (h *IngestHandler) Register(g *echo.Group) {
	g.POST("/ingest", h.ingest)
}

// IngestRequest carries one connector's payload batch.
type IngestRequest struct {
	SourceType models.SourceType        `json:"source_type"`
	Payloads   []map[string]interface{} `json:"payloads"`
}

func (h *IngestHandler) ingest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SourceType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "source_type required")
	}
	if len(req.Payloads) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "payloads required")
	}

	items := make([]*models.UnifiedDataItem, 0, len(req.Payloads))
	for _, payload := range req.Payloads {
		item := h.Normalizer.Normalize(req.SourceType, payload)
		items = append(items, item)
	}
	if h.Metrics != nil {
		h.Metrics.ItemsNormalized.WithLabelValues(string(req.SourceType)).Add(float64(len(items)))
	}

	ctx := c.Request().Context()
	if err := h.Index.BulkIndex(ctx, items); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.Store != nil {
		if err := h.Store.SaveItems(ctx, items); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ingested": len(items)})
}
