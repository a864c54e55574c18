package collection

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart and wishlist operations for a single kind.
type Service interface {
	Kind() Kind
	AddItem(ctx context.Context, userID, productID int64, category enums.ProductCategory) (bool, error)
	RemoveItem(ctx context.Context, userID, productID int64) (bool, error)
	GetPage(ctx context.Context, userID int64, page pagination.Page) ([]catalog.Product, bool, error)
	ItemExists(ctx context.Context, userID, productID int64) (bool, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the container service for the repository's kind.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Kind() Kind {
	return s.repo.kind
}

func (s *service) logCtx(ctx context.Context, userID, productID int64) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"collection": s.repo.kind.String(),
		"user_id":    userID,
		"product_id": productID,
	})
}

// AddItem adds the product unless the pair is already present, in which case
// it reports false without error. The category must match the stored product.
func (s *service) AddItem(ctx context.Context, userID, productID int64, category enums.ProductCategory) (bool, error) {
	if !category.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown product category").
			WithDetails(map[string]any{"category": category})
	}
	ctx = s.logCtx(ctx, userID, productID)

	var added bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		code, found, err := repo.ProductCategoryCode(ctx, productID)
		if err != nil {
			return err
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if code != category.Code() {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not match product").
				WithDetails(map[string]any{"category": category, "product_id": productID})
		}
		added, err = repo.AddItem(ctx, userID, productID)
		return err
	})
	if err != nil {
		s.logg.Error(ctx, "collection.add_failed", err)
		return false, pkgerrors.WrapOnce(pkgerrors.CodeAdditionFailed, err, fmt.Sprintf("add %s item", s.repo.kind))
	}
	if added {
		s.logg.Info(ctx, "collection.item_added")
	}
	return added, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID int64) (bool, error) {
	ctx = s.logCtx(ctx, userID, productID)
	removed, err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil {
		s.logg.Error(ctx, "collection.remove_failed", err)
		return false, pkgerrors.Wrap(pkgerrors.CodeRemovalFailed, err, fmt.Sprintf("remove %s item", s.repo.kind))
	}
	return removed, nil
}

// GetPage returns the requested page; present is false when it holds no items.
func (s *service) GetPage(ctx context.Context, userID int64, page pagination.Page) ([]catalog.Product, bool, error) {
	items, err := s.repo.ListItems(ctx, userID, page.Normalize())
	if err != nil {
		return nil, false, pkgerrors.WrapOnce(pkgerrors.CodeDependency, err, fmt.Sprintf("list %s", s.repo.kind))
	}
	return items, len(items) > 0, nil
}

func (s *service) ItemExists(ctx context.Context, userID, productID int64) (bool, error) {
	ok, err := s.repo.ItemExists(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("check %s item", s.repo.kind))
	}
	return ok, nil
}
