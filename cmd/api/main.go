package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/collection"
	"github.com/angelmondragon/storefront-backend/internal/existence"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	ready := []controllers.Dependency{{Name: "database", Pinger: dbClient}}
	var (
		existsCache redis.ExistenceStore
		idemStore   redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		existsCache, idemStore = redisClient, redisClient
		ready = append(ready, controllers.Dependency{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis disabled, existence cache and idempotency keys are off")
	}

	var (
		ledgerMetrics *metrics.LedgerMetrics
		httpMetrics   *metrics.HTTPMetrics
	)
	if cfg.Metrics.Enabled {
		ledgerMetrics = metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)
		httpMetrics = metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	}

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	invRepo := inventory.NewRepository(conn)
	inventorySvc, err := inventory.NewService(invRepo, dbClient, outboxSvc, ledgerMetrics, logg)
	requireService(ctx, logg, "inventory", err)

	cartSvc := collectionService(ctx, logg, dbClient, collection.Cart)
	wishlistSvc := collectionService(ctx, logg, dbClient, collection.Wishlist)

	addrRepo := address.NewRepository(conn)
	addressSvc, err := address.NewService(addrRepo, logg)
	requireService(ctx, logg, "address", err)

	ordersSvc, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(conn),
		Addresses: addrRepo,
		Stock:     inventory.NewStock(invRepo),
		Tx:        dbClient,
		Outbox:    outboxSvc,
		Metrics:   ledgerMetrics,
		Logger:    logg,
	})
	requireService(ctx, logg, "orders", err)

	handler := routes.NewRouter(routes.Params{
		Config: cfg,
		Logger: logg,
		Services: routes.Services{
			Inventory: inventorySvc,
			Cart:      cartSvc,
			Wishlist:  wishlistSvc,
			Orders:    ordersSvc,
			Addresses: addressSvc,
		},
		Checker:        existence.NewChecker(conn, existsCache, cfg.Cache.ExistsTTL, logg),
		Idempotency:    idemStore,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.Handler(),
		Ready:          ready,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}

func collectionService(ctx context.Context, logg *logger.Logger, client *db.Client, kind collection.Kind) collection.Service {
	repo, err := collection.NewRepository(client.DB(), kind)
	requireService(ctx, logg, kind.String(), err)
	svc, err := collection.NewService(repo, client, logg)
	requireService(ctx, logg, kind.String(), err)
	return svc
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to build "+name+" service", err)
	os.Exit(1)
}
