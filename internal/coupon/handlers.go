package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/roxosabor/storefront-api/internal/common"
	"github.com/roxosabor/storefront-api/internal/obs"
)

// Handler exposes coupon validation over HTTP.
type Handler struct {
	Resolver *Resolver
}

type validateRequest struct {
	Code string `json:"code"`
}

type couponPayload struct {
	Type  Kind   `json:"type"`
	Value *int64 `json:"value,omitempty"`
	Label string `json:"label"`
}

// Validate resolves a coupon code for the client.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon resolver not configured", nil)
		return
	}
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "payload inválido."})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		countLookup("missing")
		common.JSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "Código não informado."})
		return
	}
	d, err := h.Resolver.Resolve(req.Code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			countLookup("invalid")
			common.JSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "Código inválido ou expirado."})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon lookup failed", nil)
		return
	}
	countLookup("valid")
	payload := couponPayload{Type: d.Kind, Label: d.Label}
	if d.Kind == KindPercent {
		v := d.Value
		payload.Value = &v
	}
	common.JSON(w, http.StatusOK, map[string]any{"ok": true, "coupon": payload})
}

func countLookup(result string) {
	if obs.CouponLookupTotal != nil {
		obs.CouponLookupTotal.WithLabelValues(result).Inc()
	}
}
