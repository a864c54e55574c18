package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Spec is the category-agnostic construction input used by callers that hold
// a category tag (request decoding, stored rows).
type Spec struct {
	BrandName   string          `json:"brand_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Model       string          `json:"model,omitempty"`
	ClothesType string          `json:"clothes_type,omitempty"`
	Gender      string          `json:"gender,omitempty"`
	Size        string          `json:"size,omitempty"`
}

type electronicsFields struct {
	BrandName string `json:"brand_name" validate:"required"`
	Model     string `json:"model" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type clothesFields struct {
	BrandName   string `json:"brand_name" validate:"required"`
	ClothesType string `json:"clothes_type" validate:"required"`
	Gender      string `json:"gender" validate:"required"`
	Size        string `json:"size" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

// NewMobile builds a mobile listing.
func NewMobile(brand, model string, price decimal.Decimal, quantity int) (Product, error) {
	return New(enums.ProductCategoryMobile, Spec{BrandName: brand, Model: model, Price: price, Quantity: quantity})
}

// NewLaptop builds a laptop listing.
func NewLaptop(brand, model string, price decimal.Decimal, quantity int) (Product, error) {
	return New(enums.ProductCategoryLaptop, Spec{BrandName: brand, Model: model, Price: price, Quantity: quantity})
}

// NewClothes builds an apparel listing.
func NewClothes(brand, clothesType, gender, size string, price decimal.Decimal, quantity int) (Product, error) {
	return New(enums.ProductCategoryClothes, Spec{
		BrandName:   brand,
		ClothesType: clothesType,
		Gender:      gender,
		Size:        size,
		Price:       price,
		Quantity:    quantity,
	})
}

// New builds the variant for category. Blank required fields, a non-positive
// price or a negative quantity fail with CodeInvalidAttribute.
func New(category enums.ProductCategory, spec Spec) (Product, error) {
	spec = trimSpec(spec)

	var (
		attrs Attributes
		err   error
	)
	switch category {
	case enums.ProductCategoryMobile, enums.ProductCategoryLaptop:
		err = validate.Struct(electronicsFields{BrandName: spec.BrandName, Model: spec.Model, Quantity: spec.Quantity})
		if category == enums.ProductCategoryMobile {
			attrs = Mobile{Model: spec.Model}
		} else {
			attrs = Laptop{Model: spec.Model}
		}
	case enums.ProductCategoryClothes:
		err = validate.Struct(clothesFields{
			BrandName:   spec.BrandName,
			ClothesType: spec.ClothesType,
			Gender:      spec.Gender,
			Size:        spec.Size,
			Quantity:    spec.Quantity,
		})
		attrs = Clothes{ClothesType: spec.ClothesType, Gender: spec.Gender, Size: spec.Size}
	default:
		return Product{}, pkgerrors.New(pkgerrors.CodeInvalidAttribute, "unknown product category").
			WithDetails(map[string]string{"category": fmt.Sprintf("%q is not a catalog category", category)})
	}

	details := fieldErrors(err)
	if !spec.Price.IsPositive() {
		details["price"] = "must be greater than 0"
	}
	if len(details) > 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeInvalidAttribute, "invalid product attributes").WithDetails(details)
	}

	return Product{
		Price:      spec.Price,
		BrandName:  spec.BrandName,
		Quantity:   spec.Quantity,
		Attributes: attrs,
	}, nil
}

// SpecOf flattens a product back into its construction input.
func SpecOf(p Product) Spec {
	spec := Spec{BrandName: p.BrandName, Price: p.Price, Quantity: p.Quantity, Model: p.Model()}
	if c, ok := p.Clothes(); ok {
		spec.ClothesType = c.ClothesType
		spec.Gender = c.Gender
		spec.Size = c.Size
	}
	return spec
}

func trimSpec(spec Spec) Spec {
	spec.BrandName = strings.TrimSpace(spec.BrandName)
	spec.Model = strings.TrimSpace(spec.Model)
	spec.ClothesType = strings.TrimSpace(spec.ClothesType)
	spec.Gender = strings.TrimSpace(spec.Gender)
	spec.Size = strings.TrimSpace(spec.Size)
	return spec
}

func fieldErrors(err error) map[string]string {
	details := map[string]string{}
	if err == nil {
		return details
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		details["error"] = err.Error()
		return details
	}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "gte":
			details[fe.Field()] = fmt.Sprintf("must be at least %s", fe.Param())
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return details
}
