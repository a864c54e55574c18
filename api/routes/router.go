package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/collection"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Services are the domain services the HTTP surface exposes.
type Services struct {
	Inventory inventory.Service
	Cart      collection.Service
	Wishlist  collection.Service
	Orders    orders.Service
	Addresses address.Service
}

// Params carries everything NewRouter wires. Checker, Idempotency,
// HTTPMetrics and MetricsHandler are optional.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	Services       Services
	Checker        controllers.ExistenceChecker
	Idempotency    redis.IdempotencyStore
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Ready          []controllers.Dependency
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	svc := p.Services

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Ready...))
	})
	if p.MetricsHandler != nil && cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, p.MetricsHandler)
	}

	idempotent := middleware.Idempotency(p.Idempotency, cfg.Cache.IdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Post("/", controllers.InventoryAdd(svc.Inventory, logg))
			r.Get("/", controllers.InventoryList(svc.Inventory, cfg.Catalog, logg))
			r.Get("/{productId}", controllers.InventoryGet(svc.Inventory, logg))
			r.Delete("/{productId}", controllers.InventoryRemove(svc.Inventory, p.Checker, logg))
			r.Post("/{productId}/restock", controllers.InventoryRestock(svc.Inventory, logg))
		})

		r.Route("/users/{userId}", func(r chi.Router) {
			mountCollection(r, "/cart", svc.Cart, p, logg)
			mountCollection(r, "/wishlist", svc.Wishlist, p, logg)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(svc.Orders, cfg.Catalog, logg))
				r.With(idempotent).Post("/", controllers.OrderPlace(svc.Orders, p.Checker, logg))
				r.Get("/{orderId}", controllers.OrderGet(svc.Orders, logg))
				r.With(idempotent).Post("/{orderId}/cancel", controllers.OrderCancel(svc.Orders, p.Checker, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(svc.Addresses, logg))
				r.Post("/", controllers.AddressCreate(svc.Addresses, p.Checker, logg))
			})
		})
	})

	return r
}

func mountCollection(r chi.Router, path string, svc collection.Service, p Params, logg *logger.Logger) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", controllers.CollectionList(svc, p.Config.Catalog, logg))
		r.Post("/{category}/{productId}", controllers.CollectionAdd(svc, p.Checker, logg))
		r.Get("/{productId}", controllers.CollectionContains(svc, logg))
		r.Delete("/{productId}", controllers.CollectionRemove(svc, p.Checker, logg))
	})
}
