package repository

import (
	"context"
	"errors"
	"time"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
)

// Common errors returned by the store
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPromoNotFound   = errors.New("promo code not found")
	ErrRateNotFound    = errors.New("no delivery rate for postal code")

	// ErrPromoExhausted means the conditional usage-count increment found the
	// promo already at its limit; the surrounding transaction must roll back.
	ErrPromoExhausted = errors.New("promo code usage limit exhausted")
)

// PromoStore looks up promotion codes.
type PromoStore interface {
	// PromoByCode resolves a code case-insensitively.
	PromoByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}

// DeliveryStore reads the delivery-zone, window and rate records.
type DeliveryStore interface {
	ZoneContains(ctx context.Context, zip string) (bool, error)
	DeliveryWindows(ctx context.Context, weekday time.Weekday) ([]domain.Window, error)
	PickupWindows(ctx context.Context, weekday time.Weekday) ([]domain.Window, error)
	RateForZip(ctx context.Context, zip string) (*domain.DeliveryRate, error)
}

// OrderStore owns the order aggregate.
type OrderStore interface {
	// CreateOrder persists the order, its lines, the clamped stock decrements
	// and (when promoID is non-zero) the conditional promo usage increment as
	// one transaction. Returns the new order id.
	CreateOrder(ctx context.Context, order *domain.Order, promoID int64) (int64, error)

	// OrderByID loads an order with its lines.
	OrderByID(ctx context.Context, id int64) (*domain.Order, error)

	// MarkPaid flips the paid flag and reports whether this call was the
	// first to do so. Returns ErrOrderNotFound for unknown ids.
	MarkPaid(ctx context.Context, id int64) (bool, error)

	// IncrementSales bumps a product's cumulative sales count.
	IncrementSales(ctx context.Context, productID int64, quantity int) error

	// RecentOrders returns the newest orders with lines, for staff export.
	RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error)
}

// CatalogStore owns products and categories.
type CatalogStore interface {
	ProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
	ActiveProducts(ctx context.Context) ([]*domain.Product, error)

	// SyncTx runs fn against a transaction-scoped catalog view; either every
	// write fn performed commits, or none do.
	SyncTx(ctx context.Context, fn func(tx CatalogTx) error) error
}

// CatalogTx is the transactional surface the catalog syncer merges through.
type CatalogTx interface {
	EnsureCategory(ctx context.Context, name, slug string) (int64, error)
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
}
