package enums

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ProductCategory represents the canonical product categories supported by the catalog.
type ProductCategory string

const (
	ProductCategoryMobile  ProductCategory = "mobile"
	ProductCategoryLaptop  ProductCategory = "laptop"
	ProductCategoryClothes ProductCategory = "clothes"
)

var validProductCategories = []ProductCategory{
	ProductCategoryMobile,
	ProductCategoryLaptop,
	ProductCategoryClothes,
}

var productCategoryCodes = map[ProductCategory]int{
	ProductCategoryMobile:  1,
	ProductCategoryLaptop:  2,
	ProductCategoryClothes: 3,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	_, ok := productCategoryCodes[c]
	return ok
}

// Code returns the persisted category_id, or 0 for an unknown category.
func (c ProductCategory) Code() int {
	return productCategoryCodes[c]
}

// IsElectronics reports whether the category stores its attributes in electronics_inventory.
func (c ProductCategory) IsElectronics() bool {
	return c == ProductCategoryMobile || c == ProductCategoryLaptop
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// CategoryFromCode maps a stored category_id back to its category. An unknown
// code means the stored data is corrupt.
func CategoryFromCode(code int) (ProductCategory, error) {
	for category, candidate := range productCategoryCodes {
		if candidate == code {
			return category, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeCategoryCode, fmt.Sprintf("unknown category code %d", code))
}

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatusCodes = map[OrderStatus]int{
	OrderStatusPlaced:    1,
	OrderStatusDelivered: 2,
	OrderStatusInTransit: 3,
	OrderStatusCancelled: 4,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusCodes[s]
	return ok
}

// Code returns the persisted order_status_id.
func (s OrderStatus) Code() int {
	return orderStatusCodes[s]
}

// OrderStatusFromCode maps a stored order_status_id back to its status.
func OrderStatusFromCode(code int) (OrderStatus, error) {
	for status, candidate := range orderStatusCodes {
		if candidate == code {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid order status code %d", code)
}

// PaymentMode is the tag stored with an order. No payment is processed.
type PaymentMode string

const (
	PaymentModeCashOnDelivery PaymentMode = "cash_on_delivery"
	PaymentModeCard           PaymentMode = "card"
	PaymentModeNetBanking     PaymentMode = "net_banking"
	PaymentModeUPI            PaymentMode = "upi"
)

var paymentModeCodes = map[PaymentMode]int{
	PaymentModeCashOnDelivery: 1,
	PaymentModeCard:           2,
	PaymentModeNetBanking:     3,
	PaymentModeUPI:            4,
}

func (m PaymentMode) String() string {
	return string(m)
}

func (m PaymentMode) IsValid() bool {
	_, ok := paymentModeCodes[m]
	return ok
}

// Code returns the persisted payment_mode_id.
func (m PaymentMode) Code() int {
	return paymentModeCodes[m]
}

// ParsePaymentMode converts raw input into a PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	mode := PaymentMode(strings.ToLower(strings.TrimSpace(value)))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid payment mode %q", value)
	}
	return mode, nil
}

// PaymentModeFromCode maps a stored payment_mode_id back to its mode.
func PaymentModeFromCode(code int) (PaymentMode, error) {
	for mode, candidate := range paymentModeCodes {
		if candidate == code {
			return mode, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode code %d", code)
}
