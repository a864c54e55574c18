package controllers

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ExistenceChecker answers whether users and products are known. A nil
// checker skips the checks.
type ExistenceChecker interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	ProductExists(ctx context.Context, id int64) (bool, error)
	ForgetProduct(ctx context.Context, id int64)
}

func requireUser(ctx context.Context, checker ExistenceChecker, userID int64) error {
	if checker == nil {
		return nil
	}
	ok, err := checker.UserExists(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func requireProduct(ctx context.Context, checker ExistenceChecker, productID int64) error {
	if checker == nil {
		return nil
	}
	ok, err := checker.ProductExists(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
