package main

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"datadash/internal/api"
	"datadash/internal/cache"
	"datadash/internal/config"
	"datadash/internal/engine"
	"datadash/internal/geo"
	"datadash/internal/loader"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	// 1. Initialize Echo (starts instantly)
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// 2. Preview cache is best-effort: a nil cache just means no previews.
	preview, err := cache.Open(cfg.CacheDir)
	if err != nil {
		logger.Warn("preview cache unavailable", zap.Error(err))
		preview = nil
	} else {
		defer preview.Close()
	}

	resolverOpts := []geo.Option{
		geo.WithDelay(cfg.GeocoderDelay),
		geo.WithMaxQueries(cfg.GeocoderMaxQueries),
	}
	if cfg.GeoJSONPath != "" {
		if data, err := os.ReadFile(cfg.GeoJSONPath); err == nil {
			if idx, err := geo.BuildCentroidIndex(data); err == nil {
				resolverOpts = append(resolverOpts, geo.WithCentroidIndex(idx))
			}
		}
	}
	resolver := geo.NewResolver(geo.NewClient(cfg.GeocoderURL, nil), logger, resolverOpts...)

	// 3. Register routes against an empty store; endpoints answer 503
	// until data arrives.
	store := engine.NewStore()
	h := api.NewHandler(store, resolver, preview, cfg.DefaultTopN, logger)
	h.RegisterRoutes(e)

	// 4. Load the sample dataset in the background so the API is live
	// immediately.
	go func() {
		if cfg.SamplePath == "" {
			return
		}
		t0 := time.Now()
		data, err := os.ReadFile(cfg.SamplePath)
		if err != nil {
			logger.Warn("sample dataset not loaded", zap.String("path", cfg.SamplePath), zap.Error(err))
			return
		}
		ds, err := loader.Load(cfg.SamplePath, data)
		if err != nil {
			logger.Warn("sample dataset unparseable", zap.String("path", cfg.SamplePath), zap.Error(err))
			return
		}
		store.Swap(ds, engine.Classify(ds.Cols, ds.Rows))
		logger.Info("sample dataset ready",
			zap.String("path", cfg.SamplePath),
			zap.Int("rows", len(ds.Rows)),
			zap.Duration("took", time.Since(t0)))
	}()

	logger.Info("server ready", zap.String("addr", cfg.Addr))
	if err := e.Start(cfg.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
