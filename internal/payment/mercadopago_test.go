package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roxosabor/storefront-api/internal/resilience"
)

func testHTTPClient() *resilience.HTTPClient {
	return &resilience.HTTPClient{
		Client:      &http.Client{Timeout: 2 * time.Second},
		MaxAttempts: 1,
	}
}

func TestCreatePreference(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.example/init/pref-1"}`))
	}))
	defer srv.Close()

	mp := MercadoPago{AccessToken: "token-123", BaseURL: srv.URL, HTTP: testHTTPClient()}
	pref, err := mp.CreatePreference(context.Background(), PreferenceRequest{
		ExternalReference: "pedido_1",
		Title:             "Pedido Roxo Sabor (2 itens)",
		Amount:            6289,
		Currency:          "BRL",
		Payer:             Payer{Name: "Maria", Phone: "(31) 99999-0000"},
		BackBaseURL:       "https://loja.example",
		NotificationURL:   "https://loja.example/api/v1/payments/webhook?secret=s",
		Metadata:          map[string]any{"cart_id": "c1"},
	})
	require.NoError(t, err)
	require.Equal(t, "pref-1", pref.ID)
	require.Equal(t, "https://mp.example/init/pref-1", pref.InitPoint)

	require.Equal(t, "Bearer token-123", gotAuth)
	require.Equal(t, true, gotBody["binary_mode"])
	require.Equal(t, "pedido_1", gotBody["external_reference"])
	require.Equal(t, "approved", gotBody["auto_return"])

	items, ok := gotBody["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	require.InDelta(t, 62.89, item["unit_price"].(float64), 1e-9)
	require.EqualValues(t, 1, item["quantity"])
	require.Equal(t, "BRL", item["currency_id"])

	payer := gotBody["payer"].(map[string]any)
	phone := payer["phone"].(map[string]any)
	require.Equal(t, "31999990000", phone["number"])
}

func TestCreatePreferenceUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	mp := MercadoPago{AccessToken: "t", BaseURL: srv.URL, HTTP: testHTTPClient()}
	_, err := mp.CreatePreference(context.Background(), PreferenceRequest{ExternalReference: "x"})
	require.Error(t, err)
}

func TestCreatePreferenceRequiresConfig(t *testing.T) {
	mp := MercadoPago{BaseURL: "https://example.com", HTTP: testHTTPClient()}
	_, err := mp.CreatePreference(context.Background(), PreferenceRequest{ExternalReference: "x"})
	require.Error(t, err)

	mp = MercadoPago{AccessToken: "t", HTTP: testHTTPClient()}
	_, err = mp.CreatePreference(context.Background(), PreferenceRequest{})
	require.Error(t, err)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/42", r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": 42,
			"status": "approved",
			"transaction_amount": 62.89,
			"payment_type_id": "credit_card",
			"installments": 2,
			"metadata": {"cart_id": "c1"},
			"payer": {"first_name": "Maria", "last_name": "Silva", "phone": {"number": "31999990000"}}
		}`))
	}))
	defer srv.Close()

	mp := MercadoPago{AccessToken: "token-123", BaseURL: srv.URL, HTTP: testHTTPClient()}
	details, err := mp.GetPayment(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "42", details.ID)
	require.Equal(t, "approved", details.Status)
	require.EqualValues(t, 6289, details.Amount)
	require.Equal(t, "credit_card", details.PaymentType)
	require.Equal(t, 2, details.Installments)
	require.Equal(t, "Maria Silva", details.PayerName)
	require.Equal(t, "31999990000", details.PayerPhone)
	require.Equal(t, "c1", details.Metadata["cart_id"])
}
