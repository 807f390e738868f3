package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/roxosabor/storefront-api/internal/pricing"
	"github.com/roxosabor/storefront-api/internal/resilience"
)

// Telegram relays approved orders to a chat via the Bot API.
type Telegram struct {
	BotToken string
	ChatID   string
	BaseURL  string
	HTTP     *resilience.HTTPClient
}

func (t Telegram) base() string {
	host := strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if host == "" {
		return "https://api.telegram.org"
	}
	return host
}

// OrderApproved posts a formatted order message to the configured chat.
func (t Telegram) OrderApproved(ctx context.Context, o Order) error {
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return errors.New("notify: telegram not configured")
	}
	if t.HTTP == nil {
		return errors.New("notify: http client not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"chat_id":    t.ChatID,
		"text":       FormatOrder(o),
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}
	url := t.base() + "/bot" + t.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: telegram returned %s", resp.Status)
	}
	return nil
}

// FormatOrder renders the HTML message body for an approved order.
func FormatOrder(o Order) string {
	var b strings.Builder
	b.WriteString("\U0001F7E3 <b>NOVO PEDIDO APROVADO!</b>\n\n")
	if o.CustomerName != "" {
		fmt.Fprintf(&b, "\U0001F464 <b>Cliente:</b> %s\n", o.CustomerName)
	}
	if o.CustomerPhone != "" {
		fmt.Fprintf(&b, "\U0001F4F1 <b>WhatsApp:</b> %s\n", o.CustomerPhone)
	}
	if o.Address != "" {
		fmt.Fprintf(&b, "\U0001F4CD <b>Endereço:</b> %s\n", o.Address)
	}
	if o.Items != "" {
		fmt.Fprintf(&b, "\n\U0001F6D2 <b>Itens:</b>\n%s\n", o.Items)
	}
	if o.Note != "" {
		fmt.Fprintf(&b, "\n\U0001F4DD <b>Observações:</b> %s\n", o.Note)
	}
	b.WriteString("\n\U0001F4B0 <b>Valores:</b>\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", formatBRL(o.Subtotal))
	if o.Discount > 0 {
		label := "Desconto"
		if o.CouponCode != "" {
			label = "Desconto (" + o.CouponCode + ")"
		}
		fmt.Fprintf(&b, "%s: -%s\n", label, formatBRL(o.Discount))
	}
	fmt.Fprintf(&b, "Entrega: %s\n", formatBRL(o.DeliveryFee))
	fmt.Fprintf(&b, "<b>Total: %s</b>\n", formatBRL(o.Total))
	if o.PaymentMethod != "" {
		fmt.Fprintf(&b, "\n\U0001F4B3 <b>Pagamento:</b> %s", o.PaymentMethod)
		if o.Installments > 1 {
			fmt.Fprintf(&b, " (%dx)", o.Installments)
		}
		b.WriteString("\n")
	}
	if o.PaymentID != "" {
		fmt.Fprintf(&b, "\U0001F9FE <b>ID:</b> %s\n", o.PaymentID)
	}
	if o.Reference != "" {
		fmt.Fprintf(&b, "\U0001F4E6 <b>Ref:</b> %s\n", o.Reference)
	}
	return b.String()
}

func formatBRL(m pricing.Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, m/100, m%100)
}
