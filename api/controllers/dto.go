package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type productRequest struct {
	Category    string          `json:"category" validate:"required,oneof=mobile laptop clothes"`
	BrandName   string          `json:"brand_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Model       string          `json:"model,omitempty"`
	ClothesType string          `json:"clothes_type,omitempty"`
	Gender      string          `json:"gender,omitempty"`
	Size        string          `json:"size,omitempty"`
}

func (p productRequest) product() (catalog.Product, error) {
	category, err := enums.ParseProductCategory(p.Category)
	if err != nil {
		return catalog.Product{}, err
	}
	return catalog.New(category, catalog.Spec{
		BrandName:   p.BrandName,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Model:       p.Model,
		ClothesType: p.ClothesType,
		Gender:      p.Gender,
		Size:        p.Size,
	})
}

type productResponse struct {
	ID          int64                 `json:"id"`
	Category    enums.ProductCategory `json:"category"`
	BrandName   string                `json:"brand_name"`
	Price       decimal.Decimal       `json:"price"`
	Quantity    int                   `json:"quantity"`
	Model       string                `json:"model,omitempty"`
	ClothesType string                `json:"clothes_type,omitempty"`
	Gender      string                `json:"gender,omitempty"`
	Size        string                `json:"size,omitempty"`
	Display     string                `json:"display"`
}

func toProductResponse(p catalog.Product) productResponse {
	spec := catalog.SpecOf(p)
	return productResponse{
		ID:          p.ID,
		Category:    p.Category(),
		BrandName:   spec.BrandName,
		Price:       spec.Price,
		Quantity:    spec.Quantity,
		Model:       spec.Model,
		ClothesType: spec.ClothesType,
		Gender:      spec.Gender,
		Size:        spec.Size,
		Display:     p.String(),
	}
}

func toProductResponses(items []catalog.Product) []productResponse {
	out := make([]productResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResponse(p))
	}
	return out
}
