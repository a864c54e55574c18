package orders

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/projection"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for the order ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, order *models.Order) error
	FindRow(ctx context.Context, userID, orderID int64) (models.Order, error)
	TransitionStatus(ctx context.Context, orderID int64, from, to enums.OrderStatus) (bool, error)
	UnitPrice(ctx context.Context, productID int64) (decimal.Decimal, bool, error)
	Find(ctx context.Context, userID, orderID int64) (Order, error)
	List(ctx context.Context, userID int64, page pagination.Page) ([]Order, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindRow(ctx context.Context, userID, orderID int64) (models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).Take(&row).Error
	return row, err
}

// TransitionStatus moves the order only while it is still in from; false
// means another writer got there first or the order was never in that state.
func (r *repository) TransitionStatus(ctx context.Context, orderID int64, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec(`UPDATE orders SET order_status_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND order_status_id = ?`,
			to.Code(), orderID, from.Code())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UnitPrice(ctx context.Context, productID int64) (decimal.Decimal, bool, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Select("id", "price").Where("id = ?", productID).Limit(1).Find(&rows).Error; err != nil {
		return decimal.Zero, false, err
	}
	if len(rows) == 0 {
		return decimal.Zero, false, nil
	}
	return rows[0].Price, true, nil
}

type orderRow struct {
	OrderID        int64           `gorm:"column:order_id"`
	UserID         int64           `gorm:"column:user_id"`
	OrderQuantity  int             `gorm:"column:order_quantity"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount"`
	PaymentModeID  int             `gorm:"column:payment_mode_id"`
	OrderStatusID  int             `gorm:"column:order_status_id"`
	OrderCreatedAt time.Time       `gorm:"column:order_created_at"`
	AddressID      int64           `gorm:"column:address_id"`
	DoorNumber     sql.NullString  `gorm:"column:door_number"`
	Street         sql.NullString  `gorm:"column:street"`
	City           sql.NullString  `gorm:"column:city"`
	State          sql.NullString  `gorm:"column:state"`
	Country        sql.NullString  `gorm:"column:country"`
	PinCode        int             `gorm:"column:pin_code"`
	projection.ProductRow
}

var orderColumns = []string{
	"o.id AS order_id",
	"o.user_id AS user_id",
	"o.quantity AS order_quantity",
	"o.total_amount AS total_amount",
	"o.payment_mode_id AS payment_mode_id",
	"o.order_status_id AS order_status_id",
	"o.created_at AS order_created_at",
	"a.id AS address_id",
	"a.door_number AS door_number",
	"a.street AS street",
	"a.city AS city",
	"a.state AS state",
	"a.country AS country",
	"a.pin_code AS pin_code",
}

func (r *repository) joined(ctx context.Context) *gorm.DB {
	columns := append(append([]string{}, orderColumns...), projection.ProductColumns("p")...)
	q := r.db.WithContext(ctx).
		Table("orders o").
		Select(strings.Join(columns, ", ")).
		Joins("JOIN product p ON p.id = o.product_id").
		Joins("JOIN address a ON a.id = o.address_id")
	return projection.JoinAttributes(q, "p")
}

func (r *repository) Find(ctx context.Context, userID, orderID int64) (Order, error) {
	var rows []orderRow
	if err := r.joined(ctx).Where("o.id = ? AND o.user_id = ?", orderID, userID).Limit(1).Scan(&rows).Error; err != nil {
		return Order{}, err
	}
	if len(rows) == 0 {
		return Order{}, gorm.ErrRecordNotFound
	}
	return rows[0].toOrder()
}

// List returns one page of the user's orders by ascending order id.
func (r *repository) List(ctx context.Context, userID int64, page pagination.Page) ([]Order, error) {
	var rows []orderRow
	err := r.joined(ctx).
		Where("o.user_id = ?", userID).
		Order("o.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toOrder()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r orderRow) toOrder() (Order, error) {
	product, err := r.ProductRow.Product()
	if err != nil {
		return Order{}, err
	}
	status, err := enums.OrderStatusFromCode(r.OrderStatusID)
	if err != nil {
		return Order{}, err
	}
	mode, err := enums.PaymentModeFromCode(r.PaymentModeID)
	if err != nil {
		return Order{}, err
	}
	return Order{
		ID:          r.OrderID,
		UserID:      r.UserID,
		ProductID:   product.ID,
		ProductName: projection.ProductName(product),
		Quantity:    r.OrderQuantity,
		TotalAmount: r.TotalAmount,
		Address: address.Address{
			ID:         r.AddressID,
			UserID:     r.UserID,
			DoorNumber: r.DoorNumber.String,
			Street:     r.Street.String,
			City:       r.City.String,
			State:      r.State.String,
			Country:    r.Country.String,
			PinCode:    r.PinCode,
		},
		PaymentMode: mode,
		Status:      status,
		CreatedAt:   r.OrderCreatedAt,
	}, nil
}
