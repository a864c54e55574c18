package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/kafka"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const serviceName = "outbox-publisher"

type closingSink interface {
	sink
	io.Closer
}

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"sink": cfg.Outbox.Sink,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer closeWithLog(ctx, logg, "database", dbClient)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	out, topic, err := openSink(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap publish sink", err)
		os.Exit(1)
	}
	defer closeWithLog(ctx, logg, cfg.Outbox.Sink, out)

	eventRegistry, err := registry.NewEventRegistry(topic)
	if err != nil {
		logg.Error(ctx, "failed to build event registry", err)
		os.Exit(1)
	}

	var guard publishGuard
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer closeWithLog(ctx, logg, "redis", redisClient)

		manager, err := idempotency.NewManager(redisClient, cfg.Outbox.PublishedKeyTTL)
		if err != nil {
			logg.Error(ctx, "failed to build idempotency guard", err)
			os.Exit(1)
		}
		guard = manager
	} else {
		logg.Warn(ctx, "redis disabled, publishing without idempotency guard")
	}

	var jobMetrics *metrics.JobMetrics
	if cfg.Metrics.Enabled {
		jobMetrics = metrics.NewJobMetrics(prometheus.DefaultRegisterer)
		srv := metricsServer(cfg.Metrics)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "metrics server stopped", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	service, err := NewService(ServiceParams{
		Config:     cfg.Outbox,
		SinkName:   strings.ToLower(cfg.Outbox.Sink),
		Logger:     logg,
		DB:         dbClient,
		Sink:       out,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   eventRegistry,
		Guard:      guard,
		Metrics:    jobMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create outbox publisher", err)
		os.Exit(1)
	}

	logg.Info(logg.WithField(ctx, "topic", topic), "starting outbox publisher")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

// openSink connects the configured broker and returns it with the ledger
// topic events are routed to.
func openSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (closingSink, string, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Outbox.Sink)) {
	case config.SinkKafka:
		w, err := kafka.NewWriter(ctx, cfg.Kafka, logg)
		if err != nil {
			return nil, "", err
		}
		return w, cfg.Kafka.LedgerTopic, nil
	case config.SinkPubSub:
		c, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		if err != nil {
			return nil, "", err
		}
		return c, cfg.PubSub.LedgerTopic, nil
	}
	return nil, "", fmt.Errorf("unsupported outbox sink %q", cfg.Outbox.Sink)
}

func metricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func closeWithLog(ctx context.Context, logg *logger.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logg.Error(ctx, fmt.Sprintf("error closing %s", name), err)
	}
}
