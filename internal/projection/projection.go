// Package projection turns joined product rows (product plus its left-joined
// attribute tables) into catalog variants. Every read path that returns
// products selects ProductColumns and applies JoinAttributes, so inventory,
// cart, wishlist and order listings all decode rows the same way.
package projection

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	electronicsAlias = "ei"
	clothesAlias     = "ci"
)

// ProductRow is one scanned product with both attribute tables left-joined;
// only the columns of the row's own category are populated.
type ProductRow struct {
	ProductID        int64           `gorm:"column:product_id"`
	CategoryID       int             `gorm:"column:category_id"`
	Price            decimal.Decimal `gorm:"column:price"`
	Quantity         int             `gorm:"column:quantity"`
	ElectronicsBrand sql.NullString  `gorm:"column:electronics_brand"`
	ElectronicsModel sql.NullString  `gorm:"column:electronics_model"`
	ClothesBrand     sql.NullString  `gorm:"column:clothes_brand"`
	ClothesType      sql.NullString  `gorm:"column:clothes_type"`
	ClothesGender    sql.NullString  `gorm:"column:clothes_gender"`
	ClothesSize      sql.NullString  `gorm:"column:clothes_size"`
}

// ProductColumns lists the select expressions for ProductRow given the alias
// used for the product table.
func ProductColumns(productAlias string) []string {
	return []string{
		productAlias + ".id AS product_id",
		productAlias + ".category_id AS category_id",
		productAlias + ".price AS price",
		productAlias + ".quantity AS quantity",
		electronicsAlias + ".brand AS electronics_brand",
		electronicsAlias + ".model AS electronics_model",
		clothesAlias + ".brand AS clothes_brand",
		clothesAlias + ".clothes_type AS clothes_type",
		clothesAlias + ".gender AS clothes_gender",
		clothesAlias + ".size AS clothes_size",
	}
}

// JoinAttributes left-joins both attribute tables onto the product alias.
func JoinAttributes(q *gorm.DB, productAlias string) *gorm.DB {
	return q.
		Joins(fmt.Sprintf("LEFT JOIN electronics_inventory %s ON %s.product_id = %s.id", electronicsAlias, electronicsAlias, productAlias)).
		Joins(fmt.Sprintf("LEFT JOIN clothes_inventory %s ON %s.product_id = %s.id", clothesAlias, clothesAlias, productAlias))
}

// Product dispatches on the category code and reads only that category's
// columns. An unknown code yields CodeCategoryCode.
func (r ProductRow) Product() (catalog.Product, error) {
	category, err := enums.CategoryFromCode(r.CategoryID)
	if err != nil {
		return catalog.Product{}, err
	}

	spec := catalog.Spec{Price: r.Price, Quantity: r.Quantity}
	if category.IsElectronics() {
		spec.BrandName = r.ElectronicsBrand.String
		spec.Model = r.ElectronicsModel.String
	} else {
		spec.BrandName = r.ClothesBrand.String
		spec.ClothesType = r.ClothesType.String
		spec.Gender = r.ClothesGender.String
		spec.Size = r.ClothesSize.String
	}

	product, err := catalog.New(category, spec)
	if err != nil {
		return catalog.Product{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("stored product %d is incomplete", r.ProductID))
	}
	return product.WithID(r.ProductID), nil
}

// Products converts rows in order, stopping at the first corrupt row.
func Products(rows []ProductRow) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.Product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProductName renders the display name attached to order listings.
func ProductName(p catalog.Product) string {
	price := p.Price.StringFixed(2)
	if c, ok := p.Clothes(); ok {
		return fmt.Sprintf("%s brand :%s size : %s gender: %s - Rs :%s ", c.ClothesType, p.BrandName, c.Size, c.Gender, price)
	}
	return fmt.Sprintf("Product name : %s %s - Rs :%s", p.BrandName, p.Model(), price)
}
