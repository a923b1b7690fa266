package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/briefdhq/briefd/config"
	"github.com/briefdhq/briefd/internal/brief"
	rediscache "github.com/briefdhq/briefd/internal/cache/redis"
	"github.com/briefdhq/briefd/internal/index/bleveindex"
	"github.com/briefdhq/briefd/internal/pipeline"
	"github.com/briefdhq/briefd/internal/store"
	"github.com/briefdhq/briefd/internal/telemetry"
)

// Run wires the index, archive, cache, pipeline and assembler together and
// serves the HTTP API until the process exits.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	metrics := telemetry.NewMetrics()
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	ctx := context.Background()

	idx, err := bleveindex.New(cfg.Index.Path)
	if err != nil {
		return err
	}

	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	rdb, err := rediscache.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
	if err != nil {
		return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
	}

	pipe := pipeline.New(log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags))
	assembler := brief.NewAssembler(brief.Options{
		Index:         idx,
		Pipeline:      pipe,
		Cache:         rediscache.New(rdb),
		Archive:       st,
		Metrics:       metrics,
		Logger:        log.New(log.Writer(), "[ASSEMBLER] ", log.LstdFlags),
		CacheTTL:      cfg.Brief.CacheTTL,
		MaxBatchItems: cfg.Index.MaxBatchItems,
	})

	api := e.Group("/api")

	bh := &BriefsHandler{Assembler: assembler, Store: st, Defaults: cfg.Brief}
	bh.Register(api.Group("/briefs"))

	ih := &IngestHandler{
		Normalizer: pipeline.NewNormalizer(log.New(log.Writer(), "[NORMALIZER] ", log.LstdFlags)),
		Index:      idx,
		Store:      st,
		Metrics:    metrics,
	}
	ih.Register(api.Group("/items"))

	if cfg.Scheduler.Enabled {
		sched := &Scheduler{
			Assembler: assembler,
			Store:     st,
			Rdb:       rdb,
			Config:    cfg.Scheduler,
			Defaults:  cfg.Brief,
			Stop:      make(chan struct{}),
			Logger:    log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
		}
		sched.Start()
	}

	return e.Start(cfg.Server.Address)
}
