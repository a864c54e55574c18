package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type fixture struct {
	orders    Service
	inventory inventory.Service
	conn      *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	ob := outbox.NewService(outbox.NewRepository(conn), nil)
	invRepo := inventory.NewRepository(conn)

	inv, err := inventory.NewService(invRepo, client, ob, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(Deps{
		Repo:      NewRepository(conn),
		Addresses: address.NewRepository(conn),
		Stock:     inventory.NewStock(invRepo),
		Tx:        client,
		Outbox:    ob,
	})
	require.NoError(t, err)
	return fixture{orders: svc, inventory: inv, conn: conn}
}

func (f fixture) addAcmeX1(t *testing.T, qty int) int64 {
	t.Helper()
	p, err := catalog.NewMobile("Acme", "X1", decimal.NewFromInt(1000), qty)
	require.NoError(t, err)
	res, err := f.inventory.AddProducts(context.Background(), []catalog.Product{p})
	require.NoError(t, err)
	require.Len(t, res.Added, 1)
	return res.Added[0].ID
}

func (f fixture) quantity(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.inventory.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func (f fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func homeAddress() *address.Address {
	return &address.Address{
		DoorNumber: "4",
		Street:     "Park Street",
		City:       "Kolkata",
		State:      "West Bengal",
		Country:    "India",
		PinCode:    700016,
	}
}

func TestPlaceAndCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.addAcmeX1(t, 10)

	order, err := f.orders.PlaceOrder(ctx, 1, OrderDraft{
		ProductID:   productID,
		Quantity:    3,
		Address:     homeAddress(),
		PaymentMode: enums.PaymentModeUPI,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPlaced, order.Status)
	require.True(t, decimal.NewFromInt(3000).Equal(order.TotalAmount))
	require.Equal(t, "Product name : Acme X1 - Rs :1000.00", order.ProductName)
	require.Equal(t, "Kolkata", order.Address.City)
	require.Equal(t, enums.PaymentModeUPI, order.PaymentMode)
	require.Equal(t, 7, f.quantity(t, productID))

	require.NoError(t, f.orders.CancelOrder(ctx, 1, order.ID))
	require.Equal(t, 10, f.quantity(t, productID))

	got, err := f.orders.GetOrder(ctx, 1, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, got.Status)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 3)
	require.Equal(t, enums.EventOrderPlaced, events[1].EventType)
	require.Equal(t, enums.EventOrderCancelled, events[2].EventType)
}

func TestCancelTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.addAcmeX1(t, 5)

	order, err := f.orders.PlaceOrder(ctx, 2, OrderDraft{
		ProductID:   productID,
		Quantity:    2,
		Address:     homeAddress(),
		PaymentMode: enums.PaymentModeCard,
	})
	require.NoError(t, err)
	require.NoError(t, f.orders.CancelOrder(ctx, 2, order.ID))

	err = f.orders.CancelOrder(ctx, 2, order.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Equal(t, 5, f.quantity(t, productID))

	err = f.orders.CancelOrder(ctx, 2, 404)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestInsufficientStockRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	productID := f.addAcmeX1(t, 2)

	_, err := f.orders.PlaceOrder(context.Background(), 3, OrderDraft{
		ProductID:   productID,
		Quantity:    5,
		Address:     homeAddress(),
		PaymentMode: enums.PaymentModeCashOnDelivery,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	require.Equal(t, 2, f.quantity(t, productID))
	require.Equal(t, int64(0), f.count(t, &models.Order{}))
	require.Equal(t, int64(0), f.count(t, &models.Address{}))
}

func TestConcurrentPlaceOrderNeverOversells(t *testing.T) {
	f := newFixture(t)
	productID := f.addAcmeX1(t, 5)

	const buyers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		placed    int
		rejected  int
		unexpects []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := f.orders.PlaceOrder(context.Background(), userID, OrderDraft{
				ProductID:   productID,
				Quantity:    1,
				Address:     homeAddress(),
				PaymentMode: enums.PaymentModeUPI,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
				rejected++
			default:
				unexpects = append(unexpects, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	require.Empty(t, unexpects)
	require.Equal(t, 5, placed)
	require.Equal(t, buyers-5, rejected)
	require.Equal(t, 0, f.quantity(t, productID))
	require.Equal(t, int64(5), f.count(t, &models.Order{}))
	require.Equal(t, int64(5), f.count(t, &models.Address{}))
}

func TestPlaceOrderWithExistingAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.addAcmeX1(t, 10)

	stored, err := address.NewRepository(f.conn).Insert(ctx, address.Address{
		UserID: 4, DoorNumber: "1", Street: "Main", City: "Pune", State: "MH", Country: "India", PinCode: 411001,
	})
	require.NoError(t, err)

	order, err := f.orders.PlaceOrder(ctx, 4, OrderDraft{
		ProductID:   productID,
		Quantity:    1,
		TotalAmount: decimal.RequireFromString("999.50"),
		AddressID:   stored.ID,
		PaymentMode: enums.PaymentModeNetBanking,
	})
	require.NoError(t, err)
	require.Equal(t, stored.ID, order.Address.ID)
	require.Equal(t, "999.50", order.TotalAmount.StringFixed(2))
	require.Equal(t, int64(1), f.count(t, &models.Address{}))

	// another user's address cannot be attached
	_, err = f.orders.PlaceOrder(ctx, 5, OrderDraft{
		ProductID:   productID,
		Quantity:    1,
		AddressID:   stored.ID,
		PaymentMode: enums.PaymentModeCard,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, 9, f.quantity(t, productID))
}

func TestPlaceOrderValidatesDraft(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.PlaceOrder(context.Background(), 1, OrderDraft{ProductID: 1, Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.orders.PlaceOrder(context.Background(), 1, OrderDraft{
		ProductID:   1,
		Quantity:    1,
		AddressID:   1,
		Address:     homeAddress(),
		PaymentMode: enums.PaymentModeCard,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListOrdersIsScopedAndOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.addAcmeX1(t, 20)

	for i := 0; i < 3; i++ {
		_, err := f.orders.PlaceOrder(ctx, 8, OrderDraft{
			ProductID:   productID,
			Quantity:    i + 1,
			Address:     homeAddress(),
			PaymentMode: enums.PaymentModeCard,
		})
		require.NoError(t, err)
	}
	_, err := f.orders.PlaceOrder(ctx, 9, OrderDraft{
		ProductID:   productID,
		Quantity:    1,
		Address:     homeAddress(),
		PaymentMode: enums.PaymentModeCard,
	})
	require.NoError(t, err)

	list, err := f.orders.ListOrders(ctx, 8, pagination.New(1, 2))
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Less(t, list[0].ID, list[1].ID)
	require.Equal(t, 1, list[0].Quantity)

	rest, err := f.orders.ListOrders(ctx, 8, pagination.New(2, 2))
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, 3, rest[0].Quantity)

	_, err = f.orders.GetOrder(ctx, 9, list[0].ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
