package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestConstructorsBuildVariants(t *testing.T) {
	mobile, err := NewMobile("Acme", "X1", price("1000"), 10)
	require.NoError(t, err)
	require.Equal(t, enums.ProductCategoryMobile, mobile.Category())
	require.Equal(t, "X1", mobile.Model())

	laptop, err := NewLaptop(" Zen ", "Book 14", price("55999.5"), 0)
	require.NoError(t, err)
	require.Equal(t, enums.ProductCategoryLaptop, laptop.Category())
	require.Equal(t, "Zen", laptop.BrandName)

	shirt, err := NewClothes("Levi", "shirt", "male", "M", price("799"), 4)
	require.NoError(t, err)
	attrs, ok := shirt.Clothes()
	require.True(t, ok)
	require.Equal(t, Clothes{ClothesType: "shirt", Gender: "male", Size: "M"}, attrs)
	_, isMobile := shirt.Mobile()
	require.False(t, isMobile)
}

func TestConstructionRejectsInvalidAttributes(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Product, error)
		field string
	}{
		{"blank model", func() (Product, error) { return NewMobile("Acme", "  ", price("10"), 1) }, "model"},
		{"blank brand", func() (Product, error) { return NewLaptop("", "X", price("10"), 1) }, "brand_name"},
		{"zero price", func() (Product, error) { return NewMobile("Acme", "X1", decimal.Zero, 1) }, "price"},
		{"negative quantity", func() (Product, error) { return NewLaptop("Acme", "X1", price("10"), -1) }, "quantity"},
		{"blank size", func() (Product, error) { return NewClothes("Levi", "shirt", "male", "", price("10"), 1) }, "size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeInvalidAttribute, typed.Code())
			details, ok := typed.Details().(map[string]string)
			require.True(t, ok)
			require.Contains(t, details, tt.field)
		})
	}
}

func TestNewRejectsUnknownCategory(t *testing.T) {
	_, err := New(enums.ProductCategory("flower"), Spec{BrandName: "x", Price: price("1")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidAttribute))
}

func TestSameCatalogItem(t *testing.T) {
	a, _ := NewMobile("Acme", "X1", price("1000"), 10)
	b, _ := NewMobile("Acme", "X1", price("899"), 3)
	require.True(t, a.SameCatalogItem(b.WithID(42)), "id, price and quantity are not part of identity")

	laptop, _ := NewLaptop("Acme", "X1", price("1000"), 10)
	require.False(t, a.SameCatalogItem(laptop), "categories differ")

	other, _ := NewMobile("Other", "X1", price("1000"), 10)
	require.False(t, a.SameCatalogItem(other))

	m, _ := NewClothes("Levi", "shirt", "male", "M", price("799"), 4)
	l, _ := NewClothes("Levi", "shirt", "male", "L", price("799"), 4)
	require.False(t, m.SameCatalogItem(l), "clothes differing only in size are distinct")
	require.True(t, m.SameCatalogItem(m.WithID(5)))

	require.False(t, Product{BrandName: "Acme"}.SameCatalogItem(a))
}

func TestStringFormats(t *testing.T) {
	mobile, _ := NewMobile("Acme", "X1", price("1000"), 10)
	require.Equal(t, "Acme : X1 - Rs : 1000.00", mobile.String())

	shirt, _ := NewClothes("Levi", "shirt", "male", "M", price("799.5"), 4)
	require.Equal(t, "shirt - Levi : male : M : 799.50", shirt.String())
}

func TestSpecOfRoundTrips(t *testing.T) {
	shirt, _ := NewClothes("Levi", "shirt", "female", "S", price("10"), 2)
	rebuilt, err := New(shirt.Category(), SpecOf(shirt))
	require.NoError(t, err)
	require.True(t, rebuilt.SameCatalogItem(shirt))
	require.Equal(t, shirt.Quantity, rebuilt.Quantity)
}

func TestWithIDDoesNotMutate(t *testing.T) {
	base, _ := NewLaptop("Acme", "Z", price("10"), 1)
	withID := base.WithID(9)
	require.Equal(t, int64(0), base.ID)
	require.Equal(t, int64(9), withID.ID)
}
