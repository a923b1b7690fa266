package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/briefdhq/briefd/config"
	"github.com/briefdhq/briefd/internal/brief"
	"github.com/briefdhq/briefd/internal/store"
	"github.com/briefdhq/briefd/models"
)

// BriefsHandler serves brief generation and the brief archive.
type BriefsHandler struct {
	Assembler *brief.Assembler
	Store     *store.Store
	Defaults  config.BriefConfig
}

func (h *BriefsHandler) Register(g *echo.Group) {
	g.POST("/generate", h.generate)
	g.GET("/:id", h.get)
	g.GET("", h.list)
}

// GenerateRequest is the POST /api/briefs/generate payload. Unset numeric
// fields fall back to configured defaults.
type GenerateRequest struct {
	UserID             string               `json:"user_id"`
	OrgID              string               `json:"org_id"`
	BriefType          string               `json:"brief_type"`
	Sections           []models.SectionType `json:"sections"`
	MaxItemsPerSection int                  `json:"max_items_per_section"`
	PriorityThreshold  *float64             `json:"priority_threshold"`
	TimeRangeHours     int                  `json:"time_range_hours"`
	IncludeSources     []models.SourceType  `json:"include_sources"`
	ExcludeSources     []models.SourceType  `json:"exclude_sources"`
}

func (h *BriefsHandler) generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id required")
	}

	cfg := models.BriefConfig{
		UserID:             req.UserID,
		OrgID:              req.OrgID,
		BriefType:          req.BriefType,
		Sections:           req.Sections,
		MaxItemsPerSection: req.MaxItemsPerSection,
		PriorityThreshold:  h.Defaults.PriorityThreshold,
		TimeRangeHours:     req.TimeRangeHours,
		IncludeSources:     req.IncludeSources,
		ExcludeSources:     req.ExcludeSources,
	}
	if req.PriorityThreshold != nil {
		cfg.PriorityThreshold = *req.PriorityThreshold
	}
	if cfg.MaxItemsPerSection <= 0 {
		cfg.MaxItemsPerSection = h.Defaults.MaxItemsPerSection
	}
	if cfg.TimeRangeHours <= 0 {
		cfg.TimeRangeHours = h.Defaults.TimeRangeHours
	}

	generated, err := h.Assembler.Generate(c.Request().Context(), cfg)
	if err != nil {
		if errors.Is(err, brief.ErrNoSources) {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, generated)
}

func (h *BriefsHandler) get(c echo.Context) error {
	id := c.Param("id")
	b, err := h.Store.GetBrief(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrBriefNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BriefsHandler) list(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	briefs, err := h.Store.ListBriefs(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, briefs)
}
