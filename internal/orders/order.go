package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Order is one placement against a single product as read back from the
// ledger. ProductName is rendered from the current catalog entry.
type Order struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	ProductID   int64             `json:"product_id"`
	ProductName string            `json:"product_name"`
	Quantity    int               `json:"quantity"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Address     address.Address   `json:"address"`
	PaymentMode enums.PaymentMode `json:"payment_mode"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderDraft is the placement request. Exactly one of AddressID or Address
// must be set. A zero TotalAmount is filled from the stored unit price.
type OrderDraft struct {
	ProductID   int64
	Quantity    int
	TotalAmount decimal.Decimal
	AddressID   int64
	Address     *address.Address
	PaymentMode enums.PaymentMode
}

func (d OrderDraft) validate() error {
	details := map[string]string{}
	if d.ProductID <= 0 {
		details["product_id"] = "must be positive"
	}
	if d.Quantity <= 0 {
		details["quantity"] = "must be positive"
	}
	if d.TotalAmount.IsNegative() {
		details["total_amount"] = "must not be negative"
	}
	if !d.PaymentMode.IsValid() {
		details["payment_mode"] = "unknown payment mode"
	}
	switch {
	case d.AddressID > 0 && d.Address != nil:
		details["address"] = "give either address_id or address"
	case d.AddressID <= 0 && d.Address == nil:
		details["address"] = "required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(details)
	}
	return nil
}
