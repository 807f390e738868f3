package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/roxosabor/storefront-api/internal/cart"
	"github.com/roxosabor/storefront-api/internal/common"
	"github.com/roxosabor/storefront-api/internal/geo"
	"github.com/roxosabor/storefront-api/internal/obs"
	"github.com/roxosabor/storefront-api/internal/shipping"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Checkout validates the submission, prices the order and returns the hosted
// checkout URL.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		countCheckout("malformed")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			countCheckout("validation")
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid checkout data", fieldErrors(err))
			return
		}
	}

	res, err := h.Svc.Checkout(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	countCheckout("ok")
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"reference":   res.Reference,
			"checkoutUrl": res.CheckoutURL,
			"distanceKm":  res.DistanceKm,
			"pricing": map[string]any{
				"subtotal":    res.Summary.Subtotal,
				"discount":    res.Summary.Discount,
				"deliveryFee": res.Summary.DeliveryFee,
				"total":       res.Summary.Total,
			},
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		countCheckout("cart_not_found")
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrEmptyCart):
		countCheckout("empty_cart")
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, ErrBelowMinimum):
		countCheckout("below_minimum")
		common.JSONError(w, http.StatusUnprocessableEntity, "BELOW_MINIMUM", "order total below store minimum", nil)
	case errors.Is(err, shipping.ErrAddressRequired):
		countCheckout("validation")
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "Endereço não informado.", nil)
	case errors.Is(err, shipping.ErrAddressNotFound):
		countCheckout("address_not_found")
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Endereço não encontrado.", nil)
	case errors.Is(err, geo.ErrBadCoordinates):
		countCheckout("bad_coordinates")
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "Coordenadas inválidas retornadas.", nil)
	case errors.Is(err, shipping.ErrGeocodeUnavailable):
		countCheckout("geocode_unavailable")
		common.JSONError(w, http.StatusServiceUnavailable, "UPSTREAM", "Serviço de mapas indisponível.", nil)
	default:
		countCheckout("error")
		common.JSONError(w, http.StatusBadGateway, "PAYMENT", "could not start payment", nil)
	}
}

func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func countCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}
