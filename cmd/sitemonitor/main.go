package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/emergency-site-monitor/internal/adapter/alertfeed"
	httpadapter "github.com/couchcryptid/emergency-site-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/emergency-site-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/emergency-site-monitor/internal/adapter/mapbox"
	"github.com/couchcryptid/emergency-site-monitor/internal/adapter/roster"
	"github.com/couchcryptid/emergency-site-monitor/internal/config"
	"github.com/couchcryptid/emergency-site-monitor/internal/geocode"
	"github.com/couchcryptid/emergency-site-monitor/internal/observability"
	"github.com/couchcryptid/emergency-site-monitor/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Site roster: CSV (file or URL) or a SQLite table.
	var rows roster.RowSource
	switch cfg.SitesSource {
	case config.SitesSourceSQLite:
		db, err := roster.NewSQLiteSource(cfg.SitesDBPath, cfg.SitesDBTable)
		if err != nil {
			logger.Error("failed to open site database", "path", cfg.SitesDBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close() //nolint:errcheck // read-only handle
		rows = db
	default:
		rows = roster.NewCSVSource(cfg.SitesCSVURL, cfg.SitesTimeout)
	}
	sites := roster.NewRepository(rows, metrics, logger)
	alerts := alertfeed.NewClient(cfg.AlertsURL, cfg.AlertsTimeout, metrics, logger)

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	}

	p := pipeline.New(alerts, sites, publisher, cfg.RefreshInterval, nil, logger, metrics)

	// Address search (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var resolver httpadapter.Resolver
	if cfg.MapboxEnabled {
		provider := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxCountry, cfg.MapboxTimeout, logger)
		limiter := geocode.NewRateLimiter(geocode.Limits{
			RequestsPerSecond: cfg.GeocodeRPS,
			DailyRequestCap:   cfg.GeocodeDailyCap,
			CostPerRequest:    cfg.GeocodeCostPerRequest,
			MonthlyBudget:     cfg.GeocodeMonthlyBudget,
		}, nil, logger)
		resolver = geocode.NewClient(provider, geocode.NewCache(cfg.GeocodeCacheTTL, nil), limiter, metrics, logger)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_ttl", cfg.GeocodeCacheTTL, "daily_cap", cfg.GeocodeDailyCap, "monthly_budget", cfg.GeocodeMonthlyBudget)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
