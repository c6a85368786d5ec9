package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentMethod is how the customer receives an order.
type FulfillmentMethod string

const (
	FulfillmentDelivery FulfillmentMethod = "delivery"
	FulfillmentPickup   FulfillmentMethod = "pickup"
)

// Order is the aggregate created at checkout. It is born unpaid; the payment
// reconciler is the only writer allowed to flip Paid, exactly once.
type Order struct {
	ID             int64
	CustomerName   string
	Email          string
	Address        string
	City           string
	State          string
	ZipCode        string
	Created        time.Time
	Paid           bool
	PromoCode      string
	DiscountAmount decimal.Decimal
	DeliveryFee    decimal.Decimal
	Fulfillment    FulfillmentMethod
	PickupNote     string
	PickupAt       *time.Time
	Lines          []OrderLine
}

// OrderLine snapshots a product at order time. UnitPrice is immutable and
// independent of later catalog price changes.
type OrderLine struct {
	ID                int64
	OrderID           int64
	ProductID         int64
	ProductName       string
	Quantity          int
	UnitPrice         decimal.Decimal
	SquareVariationID string
}

// Total is quantity times the captured unit price.
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the line totals.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Total is subtotal minus discount plus delivery fee.
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal().Sub(o.DiscountAmount).Add(o.DeliveryFee)
}
