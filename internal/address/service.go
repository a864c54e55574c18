package address

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type Service interface {
	AddAddress(ctx context.Context, userID int64, a Address) (Address, error)
	ListAddresses(ctx context.Context, userID int64) ([]Address, error)
	GetAddress(ctx context.Context, userID, id int64) (Address, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) AddAddress(ctx context.Context, userID int64, a Address) (Address, error) {
	a = a.Normalize()
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	ctx = s.logg.WithUserID(ctx, userID)
	stored, err := s.repo.Insert(ctx, a)
	if err != nil {
		s.logg.Error(ctx, "address.add_failed", err)
		return Address{}, pkgerrors.Wrap(pkgerrors.CodeAdditionFailed, err, "add address")
	}
	s.logg.Info(s.logg.WithField(ctx, "address_id", stored.ID), "address.added")
	return stored, nil
}

func (s *service) ListAddresses(ctx context.Context, userID int64) ([]Address, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return list, nil
}

func (s *service) GetAddress(ctx context.Context, userID, id int64) (Address, error) {
	a, err := s.repo.FindForUser(ctx, userID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Address{}, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return a, nil
}
