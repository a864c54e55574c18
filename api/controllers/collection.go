package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/collection"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// The handlers below serve both the cart and the wishlist; the kind comes
// from the service they are built with.

func CollectionList(svc collection.Service, cfg config.CatalogConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, _, err := svc.GetPage(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewPageResult(toProductResponses(items), page.Number, page.Size))
	}
}

// CollectionAdd answers 201 when the product was added and 200 when it was
// already present.
func CollectionAdd(svc collection.Service, checker ExistenceChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, productID, err := collectionIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := enums.ParseProductCategory(chi.URLParam(r, "category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
				WithDetails(map[string]any{"field": "category"}))
			return
		}
		if err := requireUser(r.Context(), checker, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireProduct(r.Context(), checker, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added, err := svc.AddItem(r.Context(), userID, productID, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"kind":       svc.Kind(),
			"product_id": productID,
			"added":      added,
		})
	}
}

func CollectionContains(svc collection.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, productID, err := collectionIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		present, err := svc.ItemExists(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"kind":       svc.Kind(),
			"product_id": productID,
			"present":    present,
		})
	}
}

func CollectionRemove(svc collection.Service, checker ExistenceChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, productID, err := collectionIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireUser(r.Context(), checker, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		removed, err := svc.RemoveItem(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !removed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "item not in "+svc.Kind().String()))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"kind":       svc.Kind(),
			"product_id": productID,
			"removed":    true,
		})
	}
}

func collectionIDs(r *http.Request) (int64, int64, error) {
	userID, err := validators.ParsePathID(r, "userId")
	if err != nil {
		return 0, 0, err
	}
	productID, err := validators.ParsePathID(r, "productId")
	if err != nil {
		return 0, 0, err
	}
	return userID, productID, nil
}
