package service

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidFulfillment = errors.New("unknown fulfillment method")
	ErrPromoInvalid       = errors.New("promo code is not valid")
	ErrPromoInactive      = errors.New("promo code is not active")
	ErrPromoNotStarted    = errors.New("promo code is not active yet")
	ErrPromoExpired       = errors.New("promo code has expired")
	ErrPromoLimitMet      = errors.New("promo code usage limit reached")
	ErrOutOfZone          = errors.New("address is outside the delivery area")
	ErrOutOfWindow        = errors.New("delivery is not available at this time")
	ErrMissingAddress     = errors.New("delivery address is required")
	ErrUnknownProduct     = errors.New("unknown product in cart")
	ErrInactiveProduct    = errors.New("product is not available")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrPickupRequired     = errors.New("pickup time is required")
	ErrPickupOutOfRange   = errors.New("pickup time is not available")
)
