package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type placeOrderRequest struct {
	ProductID   int64           `json:"product_id" validate:"gt=0"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaymentMode string          `json:"payment_mode" validate:"required"`
	AddressID   int64           `json:"address_id,omitempty"`
	Address     *addressRequest `json:"address,omitempty"`
}

func (p placeOrderRequest) draft() (orders.OrderDraft, error) {
	mode, err := enums.ParsePaymentMode(p.PaymentMode)
	if err != nil {
		return orders.OrderDraft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment mode").
			WithDetails(map[string]any{"field": "payment_mode"})
	}
	draft := orders.OrderDraft{
		ProductID:   p.ProductID,
		Quantity:    p.Quantity,
		TotalAmount: p.TotalAmount,
		AddressID:   p.AddressID,
		PaymentMode: mode,
	}
	if p.Address != nil {
		a := p.Address.address()
		draft.Address = &a
	}
	return draft, nil
}

// OrderPlace places one order. The stock check happens inside the service
// transaction; a shortfall comes back as 409 INSUFFICIENT_STOCK.
func OrderPlace(svc orders.Service, checker ExistenceChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParsePathID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draft, err := body.draft()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireUser(r.Context(), checker, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireProduct(r.Context(), checker, draft.ProductID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderList(svc orders.Service, cfg config.CatalogConfig, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.ListOrders(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.NewPageResult(list, page.Number, page.Size))
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, orderID, err := orderIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel moves a placed order to cancelled and returns the updated order.
func OrderCancel(svc orders.Service, checker ExistenceChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, orderID, err := orderIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireUser(r.Context(), checker, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.CancelOrder(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func orderIDs(r *http.Request) (int64, int64, error) {
	userID, err := validators.ParsePathID(r, "userId")
	if err != nil {
		return 0, 0, err
	}
	orderID, err := validators.ParsePathID(r, "orderId")
	if err != nil {
		return 0, 0, err
	}
	return userID, orderID, nil
}

