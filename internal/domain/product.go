package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products for the storefront.
type Category struct {
	ID   int64
	Name string
	Slug string
}

// Product is a sellable catalog entry. Stock never goes below zero; writers
// clamp decrements at the store level.
type Product struct {
	ID                int64
	CategoryID        int64
	Name              string
	Slug              string
	Description       string
	Price             decimal.Decimal
	SKU               string
	UPC               string
	Allergens         string
	Stock             int
	Active            bool
	Featured          bool
	SalesCount        int
	SquareVariationID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CatalogEntry is one variation pulled from the external platform, flattened
// into the shape the local catalog understands.
type CatalogEntry struct {
	Name         string
	Slug         string
	CategoryName string
	Price        decimal.Decimal
	VariationID  string
	StockCount   *int
}

// ApplySync overlays a pulled catalog entry onto the product and reports
// whether anything changed. Price is only taken when positive, so a missing
// or zeroed upstream price never clobbers a locally maintained one.
func (p *Product) ApplySync(in CatalogEntry, categoryID int64) bool {
	changed := false
	if p.Name != in.Name {
		p.Name = in.Name
		changed = true
	}
	if p.CategoryID != categoryID {
		p.CategoryID = categoryID
		changed = true
	}
	if in.Price.IsPositive() && !p.Price.Equal(in.Price) {
		p.Price = in.Price
		changed = true
	}
	if p.SquareVariationID != in.VariationID {
		p.SquareVariationID = in.VariationID
		changed = true
	}
	return changed
}

// ApplyStockCount overlays an inventory count onto stock, clamped at zero.
// Count overlays do not count as catalog updates.
func (p *Product) ApplyStockCount(count int) bool {
	if count < 0 {
		count = 0
	}
	if p.Stock == count {
		return false
	}
	p.Stock = count
	return true
}

// Slugify builds a URL-safe slug from a display name: lowercase, runs of
// non-alphanumerics collapsed to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
