package coupon

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the code does not exist in the coupon table.
var ErrNotFound = errors.New("coupon not found")

// Kind discriminates the discount variants a coupon can unlock.
type Kind string

const (
	// KindPercent takes a percentage off the cart subtotal.
	KindPercent Kind = "percent"
	// KindFreeShipping zeroes the delivery fee.
	KindFreeShipping Kind = "freeShipping"
	// KindMessage grants nothing monetary, only an informational label.
	KindMessage Kind = "msg"
)

// Discount describes the benefit a resolved coupon grants. Immutable once resolved.
type Discount struct {
	Code  string `json:"code"`
	Kind  Kind   `json:"type"`
	Value int64  `json:"value,omitempty"`
	Label string `json:"label"`
}

// Table maps normalized coupon codes to their discounts.
type Table map[string]Discount

// DefaultTable returns the built-in promotional codes.
func DefaultTable() Table {
	return Table{
		"ROXO10":      {Code: "ROXO10", Kind: KindPercent, Value: 10, Label: "10% de desconto aplicado!"},
		"FRETEGRATIS": {Code: "FRETEGRATIS", Kind: KindFreeShipping, Label: "Frete grátis nesta compra!"},
		"ADICIONAL":   {Code: "ADICIONAL", Kind: KindMessage, Label: "Ganhou um adicional grátis no próximo açaí!"},
	}
}

// ParseTableJSON decodes a coupon table from its JSON representation,
// e.g. {"ROXO10":{"type":"percent","value":10,"label":"..."}}.
func ParseTableJSON(raw string) (Table, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("coupon: empty table")
	}
	var table Table
	if err := json.Unmarshal([]byte(trimmed), &table); err != nil {
		return nil, fmt.Errorf("coupon: parse table: %w", err)
	}
	return table, nil
}

// Resolver performs pure lookups against an injected read-only coupon table.
type Resolver struct {
	table Table
}

// NewResolver validates the table and normalizes its keys.
func NewResolver(table Table) (*Resolver, error) {
	if len(table) == 0 {
		return nil, errors.New("coupon: table is empty")
	}
	normalized := make(Table, len(table))
	for code, d := range table {
		key := Normalize(code)
		if key == "" {
			return nil, errors.New("coupon: blank code in table")
		}
		switch d.Kind {
		case KindPercent:
			if d.Value < 0 || d.Value > 100 {
				return nil, fmt.Errorf("coupon: %s percent value %d out of range", key, d.Value)
			}
		case KindFreeShipping, KindMessage:
		default:
			return nil, fmt.Errorf("coupon: %s has unknown kind %q", key, d.Kind)
		}
		d.Code = key
		normalized[key] = d
	}
	return &Resolver{table: normalized}, nil
}

// Normalize trims surrounding whitespace and uppercases a coupon code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve maps a code to its discount. Lookup is exact after normalization;
// callers reject empty codes before calling.
func (r *Resolver) Resolve(code string) (Discount, error) {
	if r == nil {
		return Discount{}, errors.New("coupon: resolver not configured")
	}
	d, ok := r.table[Normalize(code)]
	if !ok {
		return Discount{}, ErrNotFound
	}
	return d, nil
}
