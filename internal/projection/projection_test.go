package projection

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func valid(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestProductRowDispatchesOnCategory(t *testing.T) {
	row := ProductRow{
		ProductID:        3,
		CategoryID:       enums.ProductCategoryLaptop.Code(),
		Price:            decimal.NewFromInt(1200),
		Quantity:         2,
		ElectronicsBrand: valid("Acme"),
		ElectronicsModel: valid("Book"),
		ClothesBrand:     valid("ignored"),
	}
	p, err := row.Product()
	require.NoError(t, err)
	require.Equal(t, int64(3), p.ID)
	require.Equal(t, catalog.Laptop{Model: "Book"}, p.Attributes)
	require.Equal(t, "Acme", p.BrandName)
}

func TestProductRowClothes(t *testing.T) {
	row := ProductRow{
		ProductID:     8,
		CategoryID:    enums.ProductCategoryClothes.Code(),
		Price:         decimal.NewFromInt(500),
		ClothesBrand:  valid("Levi"),
		ClothesType:   valid("jeans"),
		ClothesGender: valid("female"),
		ClothesSize:   valid("32"),
	}
	p, err := row.Product()
	require.NoError(t, err)
	require.Equal(t, catalog.Clothes{ClothesType: "jeans", Gender: "female", Size: "32"}, p.Attributes)
	require.Equal(t, "jeans brand :Levi size : 32 gender: female - Rs :500.00 ", ProductName(p))
}

func TestProductRowUnknownCategory(t *testing.T) {
	_, err := ProductRow{ProductID: 1, CategoryID: 7, Price: decimal.NewFromInt(1)}.Product()
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCategoryCode))
}

func TestProductRowMissingAttributes(t *testing.T) {
	_, err := ProductRow{ProductID: 1, CategoryID: 1, Price: decimal.NewFromInt(1)}.Product()
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestProductNameElectronics(t *testing.T) {
	p, err := catalog.NewMobile("Acme", "X1", decimal.NewFromInt(1000), 1)
	require.NoError(t, err)
	require.Equal(t, "Product name : Acme X1 - Rs :1000.00", ProductName(p))
}

func TestJoinedQueryScansRows(t *testing.T) {
	conn := dbtest.Open(t)

	phone := models.Product{CategoryID: enums.ProductCategoryMobile.Code(), Price: decimal.NewFromInt(999), Quantity: 5}
	require.NoError(t, conn.Create(&phone).Error)
	require.NoError(t, conn.Create(&models.ElectronicsInventory{ProductID: phone.ID, Brand: "Acme", Model: "X1"}).Error)

	shirt := models.Product{CategoryID: enums.ProductCategoryClothes.Code(), Price: decimal.NewFromInt(10), Quantity: 1}
	require.NoError(t, conn.Create(&shirt).Error)
	require.NoError(t, conn.Create(&models.ClothesInventory{ProductID: shirt.ID, Brand: "Levi", ClothesType: "shirt", Gender: "male", Size: "M"}).Error)

	var rows []ProductRow
	q := conn.Table("product p").Select(strings.Join(ProductColumns("p"), ", "))
	require.NoError(t, JoinAttributes(q, "p").Order("p.id ASC").Scan(&rows).Error)

	products, err := Products(rows)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "Acme : X1 - Rs : 999.00", products[0].String())
	require.Equal(t, "shirt - Levi : male : M : 10.00", products[1].String())
}
