package inventory

import (
	"context"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Stock moves product quantity inside a caller's transaction. Both directions
// are single conditional updates, so concurrent orders cannot oversell.
type Stock struct {
	repo Repository
}

func NewStock(repo Repository) *Stock {
	return &Stock{repo: repo}
}

// Reserve takes qty units of the product or fails with CodeInsufficientStock,
// leaving the quantity untouched.
func (s *Stock) Reserve(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.DecrementStock(ctx, productID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	exists, err := repo.Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{"product_id": productID, "requested": qty})
}

// Release returns qty units to the product.
func (s *Stock) Release(ctx context.Context, tx *gorm.DB, productID int64, qty int) error {
	ok, err := s.repo.WithTx(tx).IncrementStock(ctx, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
