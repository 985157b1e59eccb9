package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/case-story-service/internal/adapter/csvsource"
	"github.com/couchcryptid/case-story-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/case-story-service/internal/adapter/kafka"
	"github.com/couchcryptid/case-story-service/internal/adapter/parquet"
	"github.com/couchcryptid/case-story-service/internal/config"
	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/observability"
	"github.com/couchcryptid/case-story-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load event catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}
	logger.Info("event catalog loaded", "events", len(catalog), "path", cfg.CatalogPath)

	svc := pipeline.New(newSource(cfg), catalog, cfg.StoryCacheSize, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.DefaultSegments, logger)

	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaStoryTopic, "publish_on_load", cfg.PublishOnLoad)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the dataset once, then optionally publish every story.
	go func() {
		if err := svc.Run(ctx); err != nil {
			logger.Error("load error", "error", err)
			return
		}
		if writer == nil || !cfg.PublishOnLoad || ctx.Err() != nil {
			return
		}
		if _, err := svc.PublishAll(ctx, writer, cfg.DefaultSegments); err != nil {
			logger.Error("publish on load failed", "error", err)
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

func newSource(cfg *config.Config) pipeline.RowSource {
	if cfg.DataFormat == config.FormatParquet {
		return parquet.NewSource(cfg.DataPath)
	}
	return csvsource.New(cfg.DataPath, csvsource.Columns{
		Region: cfg.CSVRegionColumn,
		Date:   cfg.CSVDateColumn,
		Count:  cfg.CSVCountColumn,
	})
}

func loadCatalog(path string) ([]domain.Event, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return domain.LoadCatalog(f)
}
