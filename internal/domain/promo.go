package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a promo value is interpreted.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

// PromoCode is a discount code. Codes are unique case-insensitively; the
// usage count is incremented under the same transaction that creates the
// order applying it.
type PromoCode struct {
	ID         int64
	Code       string
	Kind       DiscountKind
	Value      decimal.Decimal
	Active     bool
	Starts     *time.Time
	Ends       *time.Time
	UsageLimit *int
	UsageCount int
}

// Discount computes the discount this promo grants on a subtotal, rounded to
// two decimals (half up) and capped at the subtotal so an order total can
// never go negative.
func (p *PromoCode) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	if p.Kind == DiscountPercent {
		d = subtotal.Mul(p.Value).Div(decimal.NewFromInt(100)).Round(2)
	} else {
		d = p.Value.Round(2)
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d
}
