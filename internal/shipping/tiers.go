package shipping

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roxosabor/storefront-api/internal/pricing"
)

// Tier associates an inclusive upper distance bound with a delivery fee.
type Tier struct {
	MaxKm float64
	Fee   pricing.Money
}

// FeeTable holds ascending fee tiers plus the catch-all fee applied beyond the
// last breakpoint.
type FeeTable struct {
	Tiers  []Tier
	Beyond pricing.Money
}

// ParseTiers builds a fee table from "maxKm=feeMinorUnits" pairs, e.g.
// "1=499,3=799,5=1099". Pairs may arrive in any order; the table is sorted.
func ParseTiers(csv string, beyond pricing.Money) (FeeTable, error) {
	trimmed := strings.TrimSpace(csv)
	if trimmed == "" {
		return FeeTable{}, fmt.Errorf("shipping: empty tier table")
	}
	if beyond < 0 {
		return FeeTable{}, fmt.Errorf("shipping: negative beyond fee")
	}
	parts := strings.Split(trimmed, ",")
	tiers := make([]Tier, 0, len(parts))
	for _, part := range parts {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			return FeeTable{}, fmt.Errorf("shipping: malformed tier %q", part)
		}
		maxKm, err := strconv.ParseFloat(strings.TrimSpace(pair[0]), 64)
		if err != nil || maxKm <= 0 {
			return FeeTable{}, fmt.Errorf("shipping: invalid tier distance %q", pair[0])
		}
		fee, err := strconv.ParseInt(strings.TrimSpace(pair[1]), 10, 64)
		if err != nil || fee < 0 {
			return FeeTable{}, fmt.Errorf("shipping: invalid tier fee %q", pair[1])
		}
		tiers = append(tiers, Tier{MaxKm: maxKm, Fee: fee})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MaxKm < tiers[j].MaxKm })
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MaxKm == tiers[i-1].MaxKm {
			return FeeTable{}, fmt.Errorf("shipping: duplicate tier distance %v", tiers[i].MaxKm)
		}
	}
	return FeeTable{Tiers: tiers, Beyond: beyond}, nil
}

// FeeFor maps a distance to its fee: linear scan of ascending inclusive upper
// bounds, first match wins, catch-all beyond the last breakpoint.
func (t FeeTable) FeeFor(distanceKm float64) pricing.Money {
	for _, tier := range t.Tiers {
		if distanceKm <= tier.MaxKm {
			return tier.Fee
		}
	}
	return t.Beyond
}
