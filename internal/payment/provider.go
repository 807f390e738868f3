package payment

import (
	"context"

	"github.com/roxosabor/storefront-api/internal/pricing"
)

// Payer carries the customer details forwarded to the payment gateway.
type Payer struct {
	Name    string
	Email   string
	Phone   string
	Street  string
	Number  string
	ZipCode string
}

// PreferenceRequest captures everything required to open a hosted checkout
// with the gateway. The amount is the already-aggregated final total.
type PreferenceRequest struct {
	ExternalReference   string
	Title               string
	Amount              pricing.Money
	Currency            string
	Payer               Payer
	BackBaseURL         string
	NotificationURL     string
	StatementDescriptor string
	Metadata            map[string]any
}

// Preference is the gateway's hosted checkout handle.
type Preference struct {
	ID        string
	InitPoint string
}

// Details describes a payment fetched back from the gateway.
type Details struct {
	ID           string
	Status       string
	Amount       pricing.Money
	PaymentType  string
	Installments int
	PayerName    string
	PayerPhone   string
	Metadata     map[string]any
}

// Provider abstracts the upstream payment gateway.
type Provider interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error)
	GetPayment(ctx context.Context, id string) (Details, error)
}
