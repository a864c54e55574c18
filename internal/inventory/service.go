package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// clothes identity index; SQLite reports the columns instead of the name.
var clothesIdentityConstraints = []string{"ux_clothes_inventory_identity", "clothes_inventory.brand"}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages the catalog and its stock.
type Service interface {
	AddProducts(ctx context.Context, items []catalog.Product) (AddResult, error)
	RemoveProduct(ctx context.Context, id int64) (bool, error)
	ListByCategory(ctx context.Context, category enums.ProductCategory, page pagination.Page) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Restock(ctx context.Context, id int64, amount int) (catalog.Product, error)
}

// AddResult reports which submitted items were inserted and which were
// already present. Failed items appear in neither list.
type AddResult struct {
	Added   []catalog.Product
	Skipped []catalog.Product
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
}

// NewService builds the inventory service. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, m *metrics.LedgerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, metrics: m, logg: logg}, nil
}

// AddProducts inserts each item in its own transaction. Items already in the
// catalog are skipped; a failing item rolls back alone and the rest are still
// attempted. All failures come back combined.
func (s *service) AddProducts(ctx context.Context, items []catalog.Product) (AddResult, error) {
	result := AddResult{Added: []catalog.Product{}, Skipped: []catalog.Product{}}
	var errs error

	for i, item := range items {
		added, skipped, err := s.addOne(ctx, item)
		switch {
		case err != nil:
			s.logg.Error(s.logg.WithField(ctx, "item_index", i), "inventory.add_failed", err)
			// A failed rollback leaves the connection state unknown: stop here and
			// surface it unwrapped.
			if pkgerrors.IsCode(err, pkgerrors.CodeRollbackFailed) {
				return result, err
			}
			errs = multierr.Append(errs, pkgerrors.WrapOnce(pkgerrors.CodeAdditionFailed, err, fmt.Sprintf("add item %d", i)))
		case skipped:
			s.metrics.ProductSkipped(item.Category().String())
			result.Skipped = append(result.Skipped, item)
		default:
			s.metrics.ProductAdded(item.Category().String())
			s.logg.Info(s.logg.WithProductID(ctx, added.ID), "inventory.product_added")
			result.Added = append(result.Added, added)
		}
	}

	if errs != nil {
		failures := multierr.Errors(errs)
		details := make([]string, 0, len(failures))
		for _, f := range failures {
			details = append(details, f.Error())
		}
		return result, pkgerrors.Wrap(pkgerrors.CodeAdditionFailed, errs, fmt.Sprintf("%d of %d items failed", len(failures), len(items))).
			WithDetails(map[string]any{"failures": details})
	}
	return result, nil
}

func (s *service) addOne(ctx context.Context, item catalog.Product) (catalog.Product, bool, error) {
	if item.Attributes == nil {
		return catalog.Product{}, false, pkgerrors.New(pkgerrors.CodeInvalidAttribute, "product attributes required")
	}

	var (
		added   catalog.Product
		skipped bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, found, err := repo.FindMatching(ctx, item); err != nil {
			return err
		} else if found {
			skipped = true
			return nil
		}

		id, err := repo.Insert(ctx, item)
		if err != nil {
			return err
		}
		added = item.WithID(id)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductAdded,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Data: payloads.ProductAddedEvent{
				ProductID: id,
				Category:  item.Category(),
				BrandName: item.BrandName,
				Price:     item.Price,
				Quantity:  item.Quantity,
			},
		})
	})
	if err != nil && isClothesDuplicate(err) {
		return catalog.Product{}, true, nil
	}
	if err != nil {
		return catalog.Product{}, false, err
	}
	return added, skipped, nil
}

func isClothesDuplicate(err error) bool {
	for _, name := range clothesIdentityConstraints {
		if db.IsUniqueViolation(err, name) {
			return true
		}
	}
	return false
}

// RemoveProduct deletes the product and everything keyed by it in one
// transaction. A missing id is reported as false with no error.
func (s *service) RemoveProduct(ctx context.Context, id int64) (bool, error) {
	ctx = s.logg.WithProductID(ctx, id)
	var removed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orders, err := repo.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is referenced by orders").
				WithDetails(map[string]any{"product_id": id, "orders": orders})
		}

		removed, err = repo.Delete(ctx, id)
		if err != nil || !removed {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductRemoved,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Data:          payloads.ProductRemovedEvent{ProductID: id, RemovedAt: time.Now().UTC()},
		})
	})
	if err != nil {
		s.logg.Error(ctx, "inventory.remove_failed", err)
		return false, pkgerrors.WrapOnce(pkgerrors.CodeRemovalFailed, err, "remove product")
	}
	if removed {
		s.metrics.ProductRemoved()
		s.logg.Info(ctx, "inventory.product_removed")
	}
	return removed, nil
}

func (s *service) ListByCategory(ctx context.Context, category enums.ProductCategory, page pagination.Page) ([]catalog.Product, error) {
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category").
			WithDetails(map[string]any{"category": category})
	}
	products, err := s.repo.ListByCategory(ctx, category, page.Normalize())
	if err != nil {
		return nil, pkgerrors.WrapOnce(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := s.repo.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return catalog.Product{}, pkgerrors.WrapOnce(pkgerrors.CodeDependency, err, "load product")
	}
	return p, nil
}

func (s *service) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	return ok, nil
}

// Restock adds amount units to an existing product.
func (s *service) Restock(ctx context.Context, id int64, amount int) (catalog.Product, error) {
	if amount <= 0 {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "restock amount must be positive").
			WithDetails(map[string]any{"amount": amount})
	}
	ctx = s.logg.WithProductID(ctx, id)

	var updated catalog.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.IncrementStock(ctx, id, amount)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		updated, err = repo.Find(ctx, id)
		return err
	})
	if err != nil {
		return catalog.Product{}, pkgerrors.WrapOnce(pkgerrors.CodeAdditionFailed, err, "restock product")
	}
	s.logg.Info(s.logg.WithField(ctx, "amount", amount), "inventory.restocked")
	return updated, nil
}
