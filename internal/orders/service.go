package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockKeeper moves product quantity inside the caller's transaction.
type StockKeeper interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
	Release(ctx context.Context, tx *gorm.DB, productID int64, qty int) error
}

// Service exposes the order ledger.
type Service interface {
	PlaceOrder(ctx context.Context, userID int64, draft OrderDraft) (Order, error)
	CancelOrder(ctx context.Context, userID, orderID int64) error
	ListOrders(ctx context.Context, userID int64, page pagination.Page) ([]Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (Order, error)
}

type service struct {
	repo      Repository
	addresses *address.Repository
	stock     StockKeeper
	tx        txRunner
	outbox    outboxPublisher
	metrics   *metrics.LedgerMetrics
	logg      *logger.Logger
}

// Deps groups the collaborators of the order service. Metrics and Logger may be nil.
type Deps struct {
	Repo      Repository
	Addresses *address.Repository
	Stock     StockKeeper
	Tx        txRunner
	Outbox    outboxPublisher
	Metrics   *metrics.LedgerMetrics
	Logger    *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      deps.Repo,
		addresses: deps.Addresses,
		stock:     deps.Stock,
		tx:        deps.Tx,
		outbox:    deps.Outbox,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
	}, nil
}

// PlaceOrder records the address, the order row and the stock decrement in
// one transaction. Insufficient stock rolls all of it back.
func (s *service) PlaceOrder(ctx context.Context, userID int64, draft OrderDraft) (Order, error) {
	if err := draft.validate(); err != nil {
		return Order{}, err
	}
	var newAddress address.Address
	if draft.Address != nil {
		newAddress = draft.Address.Normalize()
		newAddress.UserID = userID
		if err := newAddress.Validate(); err != nil {
			return Order{}, err
		}
	}

	ctx = s.logg.WithProductID(s.logg.WithUserID(ctx, userID), draft.ProductID)

	var placed Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addresses := s.addresses.WithTx(tx)

		addressID := draft.AddressID
		if addressID > 0 {
			if _, err := addresses.FindForUser(ctx, userID, addressID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
				}
				return err
			}
		} else {
			stored, err := addresses.Insert(ctx, newAddress)
			if err != nil {
				return err
			}
			addressID = stored.ID
		}

		total := draft.TotalAmount
		if total.IsZero() {
			price, found, err := repo.UnitPrice(ctx, draft.ProductID)
			if err != nil {
				return err
			}
			if !found {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			total = price.Mul(decimal.NewFromInt(int64(draft.Quantity)))
		}

		row := models.Order{
			UserID:        userID,
			ProductID:     draft.ProductID,
			AddressID:     addressID,
			PaymentModeID: draft.PaymentMode.Code(),
			Quantity:      draft.Quantity,
			TotalAmount:   total,
			OrderStatusID: enums.OrderStatusPlaced.Code(),
		}
		if err := repo.Insert(ctx, &row); err != nil {
			return err
		}
		if err := s.stock.Reserve(ctx, tx, draft.ProductID, draft.Quantity); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderPlacedEvent{
				OrderID:     row.ID,
				UserID:      userID,
				ProductID:   draft.ProductID,
				AddressID:   addressID,
				Quantity:    draft.Quantity,
				TotalAmount: total,
				PaymentMode: draft.PaymentMode,
			},
		}); err != nil {
			return err
		}

		var err error
		placed, err = repo.Find(ctx, userID, row.ID)
		return err
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.InsufficientStock()
			s.logg.Warn(ctx, "orders.insufficient_stock")
		} else {
			s.logg.Error(ctx, "orders.place_failed", err)
		}
		return Order{}, pkgerrors.WrapOnce(pkgerrors.CodeAdditionFailed, err, "place order")
	}

	s.metrics.OrderPlaced()
	s.logg.Info(s.logg.WithOrderID(ctx, placed.ID), "orders.placed")
	return placed, nil
}

// CancelOrder moves a Placed order to Cancelled and returns its quantity to
// stock. Any other current status is a STATE_CONFLICT.
func (s *service) CancelOrder(ctx context.Context, userID, orderID int64) error {
	ctx = s.logg.WithOrderID(s.logg.WithUserID(ctx, userID), orderID)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindRow(ctx, userID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}

		ok, err := repo.TransitionStatus(ctx, orderID, enums.OrderStatusPlaced, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			current, _ := enums.OrderStatusFromCode(row.OrderStatusID)
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only placed orders can be cancelled").
				WithDetails(map[string]any{"order_id": orderID, "status": current})
		}

		if err := s.stock.Release(ctx, tx, row.ProductID, row.Quantity); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderCancelledEvent{
				OrderID:     orderID,
				UserID:      userID,
				ProductID:   row.ProductID,
				Quantity:    row.Quantity,
				CancelledAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		s.logg.Error(ctx, "orders.cancel_failed", err)
		return pkgerrors.WrapOnce(pkgerrors.CodeRemovalFailed, err, "cancel order")
	}

	s.metrics.OrderCancelled()
	s.logg.Info(ctx, "orders.cancelled")
	return nil
}

func (s *service) ListOrders(ctx context.Context, userID int64, page pagination.Page) ([]Order, error) {
	list, err := s.repo.List(ctx, userID, page.Normalize())
	if err != nil {
		return nil, pkgerrors.WrapOnce(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID int64) (Order, error) {
	o, err := s.repo.Find(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return Order{}, pkgerrors.WrapOnce(pkgerrors.CodeDependency, err, "load order")
	}
	return o, nil
}
