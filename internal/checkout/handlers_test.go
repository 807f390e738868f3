package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/roxosabor/storefront-api/internal/checkout"
)

func postCheckout(t *testing.T, h *checkout.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Checkout(rr, req)
	return rr
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	e := newEnv(t, originGeocoder())
	ctx := context.Background()

	c, err := e.carts.Create(ctx)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, c.ID, "1", 2, "")
	require.NoError(t, err)

	h := &checkout.Handler{Svc: e.svc, Validate: validator.New()}
	payload, err := json.Marshal(sampleRequest(c.ID))
	require.NoError(t, err)

	rr := postCheckout(t, h, string(payload))
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Data struct {
			Reference   string `json:"reference"`
			CheckoutURL string `json:"checkoutUrl"`
			Pricing     struct {
				Subtotal    int64 `json:"subtotal"`
				DeliveryFee int64 `json:"deliveryFee"`
				Total       int64 `json:"total"`
			} `json:"pricing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "https://mp.example/init", body.Data.CheckoutURL)
	require.NotEmpty(t, body.Data.Reference)
	require.EqualValues(t, 5380, body.Data.Pricing.Subtotal)
	require.EqualValues(t, 5879, body.Data.Pricing.Total)
}

func TestCheckoutHandlerValidation(t *testing.T) {
	e := newEnv(t, originGeocoder())
	h := &checkout.Handler{Svc: e.svc, Validate: validator.New()}

	// missing customer name and address fields
	rr := postCheckout(t, h, `{"cartId":"x","customer":{"whatsapp":"31999990000"}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, e.provider.gotReqs)
}

func TestCheckoutHandlerMalformedPayload(t *testing.T) {
	e := newEnv(t, originGeocoder())
	h := &checkout.Handler{Svc: e.svc, Validate: validator.New()}

	rr := postCheckout(t, h, `{broken`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckoutHandlerCartNotFound(t *testing.T) {
	e := newEnv(t, originGeocoder())
	h := &checkout.Handler{Svc: e.svc, Validate: validator.New()}

	payload, err := json.Marshal(sampleRequest("missing"))
	require.NoError(t, err)
	rr := postCheckout(t, h, string(payload))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCheckoutHandlerEmptyCart(t *testing.T) {
	e := newEnv(t, originGeocoder())
	ctx := context.Background()

	c, err := e.carts.Create(ctx)
	require.NoError(t, err)

	h := &checkout.Handler{Svc: e.svc, Validate: validator.New()}
	payload, err := json.Marshal(sampleRequest(c.ID))
	require.NoError(t, err)

	rr := postCheckout(t, h, string(payload))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCheckoutHandlerGeocoderDown(t *testing.T) {
	e := newEnv(t, &fakeGeocoder{err: errors.New("nominatim down")})
	ctx := context.Background()

	c, err := e.carts.Create(ctx)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, c.ID, "1", 1, "")
	require.NoError(t, err)

	h := &checkout.Handler{Svc: e.svc, Validate: validator.New()}
	payload, err := json.Marshal(sampleRequest(c.ID))
	require.NoError(t, err)

	rr := postCheckout(t, h, string(payload))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
