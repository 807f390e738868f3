package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roxosabor/storefront-api/internal/notify"
	"github.com/roxosabor/storefront-api/internal/pricing"
)

type fakeProvider struct {
	details Details
	err     error
	gotID   string
}

func (f *fakeProvider) CreatePreference(context.Context, PreferenceRequest) (Preference, error) {
	return Preference{}, errors.New("not implemented")
}

func (f *fakeProvider) GetPayment(_ context.Context, id string) (Details, error) {
	f.gotID = id
	if f.err != nil {
		return Details{}, f.err
	}
	return f.details, nil
}

type recordingNotifier struct {
	orders []notify.Order
	err    error
}

func (r *recordingNotifier) OrderApproved(_ context.Context, o notify.Order) error {
	r.orders = append(r.orders, o)
	return r.err
}

func newWebhook(provider Provider, notifier notify.Notifier) *WebhookHandler {
	return &WebhookHandler{
		Secret:     "s3cret",
		Provider:   provider,
		Notifier:   notifier,
		Logger:     zerolog.Nop(),
		SyncNotify: true,
	}
}

func postWebhook(h *WebhookHandler, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	h := newWebhook(&fakeProvider{}, &recordingNotifier{})

	rr := postWebhook(h, "/webhook?secret=wrong", `{"type":"payment","data":{"id":"1"}}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postWebhook(h, "/webhook", `{"type":"payment","data":{"id":"1"}}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWebhookIgnoresNonPaymentEvents(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &recordingNotifier{}
	h := newWebhook(provider, notifier)

	rr := postWebhook(h, "/webhook?secret=s3cret", `{"type":"merchant_order","data":{"id":"1"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, provider.gotID)
	require.Empty(t, notifier.orders)
}

func TestWebhookAcksOnLookupFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("mp down")}
	notifier := &recordingNotifier{}
	h := newWebhook(provider, notifier)

	rr := postWebhook(h, "/webhook?secret=s3cret", `{"type":"payment","data":{"id":"42"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "42", provider.gotID)
	require.Empty(t, notifier.orders)
}

func TestWebhookSkipsUnapprovedPayments(t *testing.T) {
	provider := &fakeProvider{details: Details{ID: "42", Status: "pending"}}
	notifier := &recordingNotifier{}
	h := newWebhook(provider, notifier)

	rr := postWebhook(h, "/webhook?secret=s3cret", `{"type":"payment","data":{"id":"42"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, notifier.orders)
}

func TestWebhookRelaysApprovedOrder(t *testing.T) {
	provider := &fakeProvider{details: Details{
		ID:           "42",
		Status:       "approved",
		Amount:       6289,
		PaymentType:  "pix",
		Installments: 1,
		PayerName:    "Fallback Name",
		Metadata: map[string]any{
			"customer_name":  "Maria Silva",
			"customer_phone": "31999990000",
			"full_address":   "Rua A, 1, Centro, Ouro Branco",
			"order_summary":  "2x Açaí Tradicional 500ml",
			"coupon_code":    "ROXO10",
			"subtotal":       float64(5380),
			"discount":       float64(538),
			"delivery_fee":   float64(799),
		},
	}}
	notifier := &recordingNotifier{}
	h := newWebhook(provider, notifier)

	rr := postWebhook(h, "/webhook?secret=s3cret", `{"type":"payment","data":{"id":42}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, notifier.orders, 1)

	order := notifier.orders[0]
	require.Equal(t, "42", order.PaymentID)
	require.Equal(t, "Maria Silva", order.CustomerName)
	require.Equal(t, "31999990000", order.CustomerPhone)
	require.Equal(t, "Rua A, 1, Centro, Ouro Branco", order.Address)
	require.Equal(t, "ROXO10", order.CouponCode)
	require.EqualValues(t, 5380, order.Subtotal)
	require.EqualValues(t, 538, order.Discount)
	require.EqualValues(t, 799, order.DeliveryFee)
	require.EqualValues(t, pricing.Money(6289), order.Total)
	require.Equal(t, "pix", order.PaymentMethod)
}

func TestWebhookNotifierFailureStillAcks(t *testing.T) {
	provider := &fakeProvider{details: Details{ID: "42", Status: "approved"}}
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	h := newWebhook(provider, notifier)

	rr := postWebhook(h, "/webhook?secret=s3cret", `{"type":"payment","data":{"id":"42"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, notifier.orders, 1)
}

func TestWebhookMalformedPayload(t *testing.T) {
	h := newWebhook(&fakeProvider{}, &recordingNotifier{})

	rr := postWebhook(h, "/webhook?secret=s3cret", `{broken`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookFallsBackToPayerFields(t *testing.T) {
	provider := &fakeProvider{details: Details{
		ID:         "7",
		Status:     "approved",
		PayerName:  "Maria",
		PayerPhone: "31988887777",
	}}
	notifier := &recordingNotifier{}
	h := newWebhook(provider, notifier)

	rr := postWebhook(h, "/webhook?secret=s3cret", `{"type":"payment","data":{"id":"7"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, notifier.orders, 1)
	require.Equal(t, "Maria", notifier.orders[0].CustomerName)
	require.Equal(t, "31988887777", notifier.orders[0].CustomerPhone)
}
