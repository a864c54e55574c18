package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is an immutable delivery location owned by a user.
type Address struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID     int64     `gorm:"column:user_id;not null;index:idx_address_user_id"`
	DoorNumber string    `gorm:"column:door_number;not null"`
	Street     string    `gorm:"column:street;not null"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	Country    string    `gorm:"column:country;not null"`
	PinCode    int       `gorm:"column:pin_code;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Address) TableName() string { return "address" }

// Order records one placement against a single product.
type Order struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        int64           `gorm:"column:user_id;not null;index:idx_orders_user_id"`
	ProductID     int64           `gorm:"column:product_id;not null"`
	AddressID     int64           `gorm:"column:address_id;not null"`
	PaymentModeID int             `gorm:"column:payment_mode_id;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	OrderStatusID int             `gorm:"column:order_status_id;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
