package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Product is a catalog entry. Attributes carries the category-specific data;
// exactly one variant is present and it determines Category.
type Product struct {
	ID         int64
	Price      decimal.Decimal
	BrandName  string
	Quantity   int
	Attributes Attributes
}

// Attributes is the closed set of category variants: Mobile, Laptop, Clothes.
type Attributes interface {
	Category() enums.ProductCategory
	sameAs(other Attributes) bool
	display(brand string, price decimal.Decimal) string
}

// Mobile is a phone listing.
type Mobile struct {
	Model string
}

// Laptop is a laptop listing.
type Laptop struct {
	Model string
}

// Clothes is an apparel listing. Items differing in any field are distinct.
type Clothes struct {
	ClothesType string
	Gender      string
	Size        string
}

func (Mobile) Category() enums.ProductCategory  { return enums.ProductCategoryMobile }
func (Laptop) Category() enums.ProductCategory  { return enums.ProductCategoryLaptop }
func (Clothes) Category() enums.ProductCategory { return enums.ProductCategoryClothes }

func (m Mobile) sameAs(other Attributes) bool {
	o, ok := other.(Mobile)
	return ok && o.Model == m.Model
}

func (l Laptop) sameAs(other Attributes) bool {
	o, ok := other.(Laptop)
	return ok && o.Model == l.Model
}

func (c Clothes) sameAs(other Attributes) bool {
	o, ok := other.(Clothes)
	return ok && o == c
}

func (m Mobile) display(brand string, price decimal.Decimal) string {
	return fmt.Sprintf("%s : %s - Rs : %s", brand, m.Model, price.StringFixed(2))
}

func (l Laptop) display(brand string, price decimal.Decimal) string {
	return fmt.Sprintf("%s : %s - Rs : %s", brand, l.Model, price.StringFixed(2))
}

func (c Clothes) display(brand string, price decimal.Decimal) string {
	return fmt.Sprintf("%s - %s : %s : %s : %s", c.ClothesType, brand, c.Gender, c.Size, price.StringFixed(2))
}

// Category returns the variant's category, or "" for a product without attributes.
func (p Product) Category() enums.ProductCategory {
	if p.Attributes == nil {
		return ""
	}
	return p.Attributes.Category()
}

// SameCatalogItem reports whether p and other describe the same sellable item:
// same category, brand and variant attributes. ID, price and quantity are ignored.
func (p Product) SameCatalogItem(other Product) bool {
	if p.Attributes == nil || other.Attributes == nil {
		return false
	}
	return p.BrandName == other.BrandName && p.Attributes.sameAs(other.Attributes)
}

// WithID returns a copy carrying the storage-assigned id.
func (p Product) WithID(id int64) Product {
	p.ID = id
	return p
}

// String renders the catalog display line for the product.
func (p Product) String() string {
	if p.Attributes == nil {
		return fmt.Sprintf("%s - Rs : %s", p.BrandName, p.Price.StringFixed(2))
	}
	return p.Attributes.display(p.BrandName, p.Price)
}

// Mobile returns the mobile attributes when the product is a mobile.
func (p Product) Mobile() (Mobile, bool) {
	m, ok := p.Attributes.(Mobile)
	return m, ok
}

// Laptop returns the laptop attributes when the product is a laptop.
func (p Product) Laptop() (Laptop, bool) {
	l, ok := p.Attributes.(Laptop)
	return l, ok
}

// Clothes returns the clothes attributes when the product is clothing.
func (p Product) Clothes() (Clothes, bool) {
	c, ok := p.Attributes.(Clothes)
	return c, ok
}

// Model returns the electronics model name, or "" for clothes.
func (p Product) Model() string {
	switch a := p.Attributes.(type) {
	case Mobile:
		return a.Model
	case Laptop:
		return a.Model
	}
	return ""
}
