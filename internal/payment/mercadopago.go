package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/roxosabor/storefront-api/internal/pricing"
	"github.com/roxosabor/storefront-api/internal/resilience"
)

// MercadoPago implements Provider against the Mercado Pago checkout API.
type MercadoPago struct {
	AccessToken string
	BaseURL     string
	HTTP        *resilience.HTTPClient
}

func (m MercadoPago) base() string {
	host := strings.TrimRight(strings.TrimSpace(m.BaseURL), "/")
	if host == "" {
		return "https://api.mercadopago.com"
	}
	return host
}

// CreatePreference opens a hosted checkout preference carrying one
// consolidated line item for the final order total.
func (m MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	if strings.TrimSpace(m.AccessToken) == "" {
		return Preference{}, errors.New("payment: access token not configured")
	}
	if m.HTTP == nil {
		return Preference{}, errors.New("payment: http client not configured")
	}
	if strings.TrimSpace(req.ExternalReference) == "" {
		return Preference{}, errors.New("payment: external reference is required")
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = "BRL"
	}
	backBase := strings.TrimRight(strings.TrimSpace(req.BackBaseURL), "/")

	body := map[string]any{
		"items": []map[string]any{{
			"id":          req.ExternalReference,
			"title":       req.Title,
			"quantity":    1,
			"unit_price":  toMajorUnits(req.Amount),
			"currency_id": currency,
		}},
		"payer": map[string]any{
			"name":  req.Payer.Name,
			"email": req.Payer.Email,
			"phone": map[string]any{
				"number": digitsOnly(req.Payer.Phone),
			},
			"address": map[string]any{
				"street_name": strings.TrimSpace(req.Payer.Street + ", " + req.Payer.Number),
				"zip_code":    req.Payer.ZipCode,
			},
		},
		"payment_methods": map[string]any{
			"excluded_payment_types": []map[string]string{
				{"id": "ticket"},
				{"id": "atm"},
			},
		},
		"binary_mode": true,
		"back_urls": map[string]string{
			"success": backBase + "/?status=success",
			"failure": backBase + "/?status=failure",
			"pending": backBase + "/?status=pending",
		},
		"auto_return":          "approved",
		"notification_url":     req.NotificationURL,
		"external_reference":   req.ExternalReference,
		"metadata":             req.Metadata,
		"statement_descriptor": req.StatementDescriptor,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Preference{}, fmt.Errorf("payment: marshal preference: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base()+"/checkout/preferences", bytes.NewReader(payload))
	if err != nil {
		return Preference{}, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.HTTP.Do(ctx, httpReq)
	if err != nil {
		return Preference{}, fmt.Errorf("payment: create preference: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Preference{}, fmt.Errorf("payment: create preference returned %s", resp.Status)
	}

	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Preference{}, fmt.Errorf("payment: decode preference: %w", err)
	}
	if out.InitPoint == "" {
		return Preference{}, errors.New("payment: preference without init point")
	}
	return Preference{ID: out.ID, InitPoint: out.InitPoint}, nil
}

// GetPayment fetches the payment details referenced by a webhook notification.
func (m MercadoPago) GetPayment(ctx context.Context, id string) (Details, error) {
	if strings.TrimSpace(m.AccessToken) == "" {
		return Details{}, errors.New("payment: access token not configured")
	}
	if m.HTTP == nil {
		return Details{}, errors.New("payment: http client not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.base()+"/v1/payments/"+id, nil)
	if err != nil {
		return Details{}, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.AccessToken)

	resp, err := m.HTTP.Do(ctx, httpReq)
	if err != nil {
		return Details{}, fmt.Errorf("payment: fetch payment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Details{}, fmt.Errorf("payment: fetch payment returned %s", resp.Status)
	}

	var out struct {
		ID                json.Number    `json:"id"`
		Status            string         `json:"status"`
		TransactionAmount float64        `json:"transaction_amount"`
		PaymentTypeID     string         `json:"payment_type_id"`
		Installments      int            `json:"installments"`
		Metadata          map[string]any `json:"metadata"`
		Payer             struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Phone     struct {
				Number string `json:"number"`
			} `json:"phone"`
		} `json:"payer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Details{}, fmt.Errorf("payment: decode payment: %w", err)
	}
	name := strings.TrimSpace(strings.TrimSpace(out.Payer.FirstName) + " " + strings.TrimSpace(out.Payer.LastName))
	return Details{
		ID:           out.ID.String(),
		Status:       out.Status,
		Amount:       toMinorUnits(out.TransactionAmount),
		PaymentType:  out.PaymentTypeID,
		Installments: out.Installments,
		PayerName:    name,
		PayerPhone:   out.Payer.Phone.Number,
		Metadata:     out.Metadata,
	}, nil
}

func toMajorUnits(amount pricing.Money) float64 {
	return math.Round(float64(amount)) / 100
}

func toMinorUnits(amount float64) pricing.Money {
	return pricing.Money(math.Round(amount * 100))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
