package payment

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/roxosabor/storefront-api/internal/common"
	"github.com/roxosabor/storefront-api/internal/notify"
	"github.com/roxosabor/storefront-api/internal/obs"
	"github.com/roxosabor/storefront-api/internal/pricing"
)

// WebhookHandler receives gateway notifications and relays approved orders.
// Notifications the handler cannot act on are acknowledged with 200 so the
// gateway stops retrying them.
type WebhookHandler struct {
	Secret   string
	Provider Provider
	Notifier notify.Notifier
	Logger   zerolog.Logger

	// NotifyTimeout bounds the relay call. Zero means 10s.
	NotifyTimeout time.Duration

	// SyncNotify makes the relay run before the response is written.
	SyncNotify bool
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Handle processes a gateway webhook notification.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Secret != "" {
		got := r.URL.Query().Get("secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			countWebhook("rejected")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook secret", nil)
			return
		}
	}

	var evt webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		countWebhook("malformed")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if evt.Type != "payment" || evt.Data.ID.String() == "" {
		countWebhook("ignored")
		common.JSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	details, err := h.Provider.GetPayment(r.Context(), evt.Data.ID.String())
	if err != nil {
		// The gateway retries on its own schedule; acknowledge to stop the storm.
		h.Logger.Error().Err(err).Str("payment_id", evt.Data.ID.String()).Msg("webhook payment lookup failed")
		countWebhook("lookup_failed")
		common.JSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}
	if details.Status != "approved" {
		countWebhook("not_approved")
		common.JSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	order := orderFromDetails(details)
	if h.SyncNotify {
		h.relay(r.Context(), order)
	} else {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.notifyTimeout())
			defer cancel()
			h.relay(ctx, order)
		}()
	}
	countWebhook("approved")
	common.JSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *WebhookHandler) notifyTimeout() time.Duration {
	if h.NotifyTimeout > 0 {
		return h.NotifyTimeout
	}
	return 10 * time.Second
}

func (h *WebhookHandler) relay(ctx context.Context, order notify.Order) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.OrderApproved(ctx, order); err != nil {
		h.Logger.Error().Err(err).Str("payment_id", order.PaymentID).Msg("order notification failed")
		countNotify("error")
		return
	}
	countNotify("ok")
}

// orderFromDetails rebuilds the order snapshot from preference metadata, with
// payer fields from the payment itself as a fallback.
func orderFromDetails(d Details) notify.Order {
	o := notify.Order{
		PaymentID:     d.ID,
		CustomerName:  metaString(d.Metadata, "customer_name"),
		CustomerPhone: metaString(d.Metadata, "customer_phone"),
		Address:       metaString(d.Metadata, "full_address"),
		Items:         metaString(d.Metadata, "order_summary"),
		Note:          metaString(d.Metadata, "note"),
		CouponCode:    metaString(d.Metadata, "coupon_code"),
		Reference:     metaString(d.Metadata, "external_reference"),
		Subtotal:      metaMoney(d.Metadata, "subtotal"),
		Discount:      metaMoney(d.Metadata, "discount"),
		DeliveryFee:   metaMoney(d.Metadata, "delivery_fee"),
		Total:         d.Amount,
		PaymentMethod: d.PaymentType,
		Installments:  d.Installments,
	}
	if o.CustomerName == "" {
		o.CustomerName = d.PayerName
	}
	if o.CustomerPhone == "" {
		o.CustomerPhone = d.PayerPhone
	}
	return o
}

func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func metaMoney(m map[string]any, key string) pricing.Money {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return pricing.Money(v)
	case string:
		var n pricing.Money
		_, err := fmt.Sscanf(v, "%d", &n)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func countWebhook(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues("mercadopago", result).Inc()
	}
}

func countNotify(result string) {
	if obs.OrderNotifyTotal != nil {
		obs.OrderNotifyTotal.WithLabelValues("telegram", result).Inc()
	}
}
