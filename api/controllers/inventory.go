package controllers

import (
	"fmt"
	"net/http"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type addProductsRequest struct {
	Products []productRequest `json:"products" validate:"required,min=1,max=100,dive"`
}

type addProductsResponse struct {
	Added    []productResponse `json:"added"`
	Skipped  []productResponse `json:"skipped"`
	Failures []string          `json:"failures,omitempty"`
}

type restockRequest struct {
	Amount int `json:"amount" validate:"gt=0"`
}

// InventoryAdd bulk-adds products. Items already in the catalog come back
// under skipped. When some items fail and others succeed the response is 207.
func InventoryAdd(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addProductsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]catalog.Product, 0, len(body.Products))
		for i, req := range body.Products {
			p, err := req.product()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, itemError(i, err))
				return
			}
			items = append(items, p)
		}

		result, err := svc.AddProducts(r.Context(), items)
		if err != nil && (len(result.Added)+len(result.Skipped) == 0 || pkgerrors.IsCode(err, pkgerrors.CodeRollbackFailed)) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := addProductsResponse{
			Added:   toProductResponses(result.Added),
			Skipped: toProductResponses(result.Skipped),
		}
		status := http.StatusCreated
		if err != nil {
			status = http.StatusMultiStatus
			for _, e := range multierr.Errors(err) {
				payload.Failures = append(payload.Failures, e.Error())
			}
			logg.Warn(logg.WithField(r.Context(), "failures", len(payload.Failures)), "inventory.add partially failed")
		} else if len(result.Added) == 0 {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}

func itemError(index int, err error) error {
	fields := map[string]any{"index": index}
	if typed := pkgerrors.As(err); typed != nil && typed.Details() != nil {
		fields["fields"] = typed.Details()
	}
	return pkgerrors.Wrap(pkgerrors.CodeInvalidAttribute, err, fmt.Sprintf("product %d is invalid", index)).WithDetails(fields)
}

// InventoryList pages one category in ascending id order.
func InventoryList(svc inventory.Service, cfg config.CatalogConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := enums.ParseProductCategory(r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
				WithDetails(map[string]any{"field": "category"}))
			return
		}
		page, err := parsePage(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByCategory(r.Context(), category, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewPageResult(toProductResponses(items), page.Number, page.Size))
	}
}

func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponse(p))
	}
}

// InventoryRemove deletes a product and drops its cached existence answer.
func InventoryRemove(svc inventory.Service, checker ExistenceChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		removed, err := svc.RemoveProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		if checker != nil {
			checker.ForgetProduct(r.Context(), id)
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "removed": true})
	}
}

func InventoryRestock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body restockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		p, err := svc.Restock(r.Context(), id, body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponse(p))
	}
}

func parsePage(r *http.Request, cfg config.CatalogConfig) (pagination.Page, error) {
	size := cfg.PageSize
	if size <= 0 {
		size = pagination.DefaultLimit
	}
	maxSize := cfg.MaxPageSize
	if maxSize <= 0 || maxSize > pagination.MaxLimit {
		maxSize = pagination.MaxLimit
	}
	number, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
	if err != nil {
		return pagination.Page{}, err
	}
	size, err = validators.ParseQueryInt(r, "page_size", size, 1, maxSize)
	if err != nil {
		return pagination.Page{}, err
	}
	return pagination.New(number, size), nil
}
