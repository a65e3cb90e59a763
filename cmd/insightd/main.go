package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/city-insight-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/city-insight-service/internal/adapter/kafka"
	"github.com/couchcryptid/city-insight-service/internal/cache"
	"github.com/couchcryptid/city-insight-service/internal/config"
	"github.com/couchcryptid/city-insight-service/internal/observability"
	"github.com/couchcryptid/city-insight-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	evaluator := pipeline.NewEvaluator(logger, metrics)

	// Result cache sits at the collaborator boundary; the core stays pure.
	var httpEvaluator httpadapter.InsightEvaluator = evaluator
	if cfg.CacheEnabled {
		cached, err := cache.NewCachedEvaluator(evaluator, cfg.CacheSize)
		if err != nil {
			logger.Error("failed to create result cache", "error", err)
			os.Exit(1)
		}
		httpEvaluator = cached
		logger.Info("result cache enabled", "size", cfg.CacheSize)
	} else {
		logger.Info("result cache disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stream mode is feature-flagged via KAFKA_ENABLED; readiness follows the
	// stream when it runs, otherwise the always-ready evaluator.
	var ready httpadapter.ReadinessChecker = evaluator
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		stream := pipeline.NewStream(reader, evaluator, writer, logger, metrics, cfg.BatchSize)
		ready = stream

		go func() {
			if err := stream.Run(ctx); err != nil {
				logger.Error("stream error", "error", err)
			}
		}()
		logger.Info("kafka stream enabled",
			"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka stream disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpEvaluator, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
