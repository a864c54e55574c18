package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the category-agnostic catalog row. Variant attributes live in
// ElectronicsInventory or ClothesInventory keyed by the same id.
type Product struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CategoryID int             `gorm:"column:category_id;not null;index:idx_product_category_id"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null;default:0;check:chk_product_quantity_non_negative,quantity >= 0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "product" }

// ElectronicsInventory holds mobile and laptop attributes.
type ElectronicsInventory struct {
	ProductID int64  `gorm:"column:product_id;primaryKey;autoIncrement:false"`
	Brand     string `gorm:"column:brand;not null"`
	Model     string `gorm:"column:model;not null"`
}

func (ElectronicsInventory) TableName() string { return "electronics_inventory" }

// ClothesInventory holds clothes attributes; the four descriptive columns
// identify a catalog item.
type ClothesInventory struct {
	ProductID   int64  `gorm:"column:product_id;primaryKey;autoIncrement:false"`
	Brand       string `gorm:"column:brand;not null;uniqueIndex:ux_clothes_inventory_identity"`
	ClothesType string `gorm:"column:clothes_type;not null;uniqueIndex:ux_clothes_inventory_identity"`
	Gender      string `gorm:"column:gender;not null;uniqueIndex:ux_clothes_inventory_identity"`
	Size        string `gorm:"column:size;not null;uniqueIndex:ux_clothes_inventory_identity"`
}

func (ClothesInventory) TableName() string { return "clothes_inventory" }
