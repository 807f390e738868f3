package shipping

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/roxosabor/storefront-api/internal/common"
	"github.com/roxosabor/storefront-api/internal/geo"
	"github.com/roxosabor/storefront-api/internal/obs"
)

// Handler exposes the delivery quote endpoint.
type Handler struct {
	Svc *Service
}

type quoteRequest struct {
	// Either a pre-joined address string or structured fields.
	Address      string `json:"address"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Complement   string `json:"complement"`
}

// QuoteShipping computes a delivery fee for the provided address.
func (h *Handler) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "shipping service not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSON(w, http.StatusBadRequest, map[string]any{"error": "payload inválido."})
		return
	}

	var (
		quote Quote
		err   error
	)
	if strings.TrimSpace(req.Address) != "" {
		quote, err = h.Svc.QuoteQuery(r.Context(), req.Address)
	} else {
		quote, err = h.Svc.Quote(r.Context(), Address{
			Street:       req.Street,
			Number:       req.Number,
			Neighborhood: req.Neighborhood,
			City:         req.City,
			Complement:   req.Complement,
		})
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	countQuote("ok")
	common.JSON(w, http.StatusOK, map[string]any{
		"distanceKm": quote.DistanceKm,
		"price":      quote.Fee,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAddressRequired):
		countQuote("validation")
		common.JSON(w, http.StatusBadRequest, map[string]any{"error": "Endereço não informado."})
	case errors.Is(err, ErrAddressNotFound):
		countQuote("not_found")
		common.JSON(w, http.StatusNotFound, map[string]any{"error": "Endereço não encontrado."})
	case errors.Is(err, geo.ErrBadCoordinates):
		countQuote("bad_coordinates")
		common.JSON(w, http.StatusBadGateway, map[string]any{"error": "Coordenadas inválidas retornadas."})
	case errors.Is(err, ErrGeocodeUnavailable):
		countQuote("unavailable")
		common.JSON(w, http.StatusServiceUnavailable, map[string]any{"error": "Serviço de mapas indisponível."})
	default:
		countQuote("error")
		common.JSON(w, http.StatusInternalServerError, map[string]any{"error": "Erro no cálculo."})
	}
}

func countQuote(result string) {
	if obs.ShippingQuoteTotal != nil {
		obs.ShippingQuoteTotal.WithLabelValues(result).Inc()
	}
}
