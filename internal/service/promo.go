package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
)

// PromoEngine validates promo codes and prices their discount.
type PromoEngine struct {
	store repository.PromoStore
	now   func() time.Time
}

func NewPromoEngine(store repository.PromoStore) *PromoEngine {
	return &PromoEngine{store: store, now: time.Now}
}

// Validate looks up a code (case-insensitively) and checks that it is active,
// inside its date range, and under its usage limit. The zero-value code is
// not an error; it simply means no promo was entered.
func (e *PromoEngine) Validate(ctx context.Context, code string) (*domain.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	promo, err := e.store.PromoByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			return nil, ErrPromoInvalid
		}
		return nil, fmt.Errorf("look up promo code: %w", err)
	}

	now := e.now()
	switch {
	case !promo.Active:
		return nil, ErrPromoInactive
	case promo.Starts != nil && now.Before(*promo.Starts):
		return nil, ErrPromoNotStarted
	case promo.Ends != nil && now.After(*promo.Ends):
		return nil, ErrPromoExpired
	case promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit:
		return nil, ErrPromoLimitMet
	}

	return promo, nil
}

// Apply computes the discount a validated promo grants on subtotal. A nil
// promo yields zero.
func (e *PromoEngine) Apply(promo *domain.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}
	return promo.Discount(subtotal)
}
