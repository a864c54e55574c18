package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ProductAddedEvent records a new catalog entry and its opening stock.
type ProductAddedEvent struct {
	ProductID int64                 `json:"product_id"`
	Category  enums.ProductCategory `json:"category"`
	BrandName string                `json:"brand_name"`
	Price     decimal.Decimal       `json:"price"`
	Quantity  int                   `json:"quantity"`
}

// ProductRemovedEvent records a catalog deletion.
type ProductRemovedEvent struct {
	ProductID int64     `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

// OrderPlacedEvent records a placement and the stock it consumed.
type OrderPlacedEvent struct {
	OrderID     int64             `json:"order_id"`
	UserID      int64             `json:"user_id"`
	ProductID   int64             `json:"product_id"`
	AddressID   int64             `json:"address_id"`
	Quantity    int               `json:"quantity"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	PaymentMode enums.PaymentMode `json:"payment_mode"`
}

// OrderCancelledEvent records a cancellation and the stock it restored.
type OrderCancelledEvent struct {
	OrderID     int64     `json:"order_id"`
	UserID      int64     `json:"user_id"`
	ProductID   int64     `json:"product_id"`
	Quantity    int       `json:"quantity"`
	CancelledAt time.Time `json:"cancelled_at"`
}
