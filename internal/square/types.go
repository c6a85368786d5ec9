package square

import "github.com/shopspring/decimal"

// Money is Square's integer money shape (smallest currency unit).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Decimal converts cents to a 2-decimal amount.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -2)
}

// CatalogObject is one entry of the catalog listing; Type discriminates the
// populated data field.
type CatalogObject struct {
	Type              string             `json:"type"`
	ID                string             `json:"id"`
	ItemData          *ItemData          `json:"item_data,omitempty"`
	ItemVariationData *ItemVariationData `json:"item_variation_data,omitempty"`
	CategoryData      *CategoryData      `json:"category_data,omitempty"`
}

type CategoryData struct {
	Name string `json:"name"`
}

type ItemData struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type ItemVariationData struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	PriceMoney *Money `json:"price_money,omitempty"`
}

// CatalogPage is one page of the catalog listing; an empty Cursor means the
// listing is exhausted.
type CatalogPage struct {
	Objects []CatalogObject `json:"objects"`
	Cursor  string          `json:"cursor"`
}

// InventoryAdjustment moves quantity from IN_STOCK to SOLD for one catalog
// object.
type InventoryAdjustment struct {
	CatalogObjectID string
	Quantity        int
}

// PaymentLinkRequest asks Square for a hosted quick-pay checkout page.
type PaymentLinkRequest struct {
	OrderID int64
	Amount  decimal.Decimal
	Note    string
}

// APIError is one entry of Square's error list.
type APIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

func (e APIError) Error() string {
	return e.Category + "/" + e.Code + ": " + e.Detail
}
