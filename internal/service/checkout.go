package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/notify"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/square"
)

// CartItem is one line of a checkout request.
type CartItem struct {
	ProductID int64
	Quantity  int
}

// CheckoutRequest is everything the storefront submits to place an order.
type CheckoutRequest struct {
	Name        string
	Email       string
	Address     string
	City        string
	State       string
	Zip         string
	Fulfillment domain.FulfillmentMethod
	PickupAt    *time.Time
	PickupNote  string
	PromoCode   string
	Items       []CartItem
}

// CheckoutResult is a placed order plus the hosted payment page, when one
// could be created.
type CheckoutResult struct {
	Order      *domain.Order
	PaymentURL string
}

// feeQuoter prices delivery to a ZIP. Satisfied by GeoFeeCalculator.
type feeQuoter interface {
	Fee(ctx context.Context, zip string) decimal.Decimal
}

// eventSink queues notification events. Satisfied by notify.Dispatcher.
type eventSink interface {
	Dispatch(ev notify.Event)
}

// CheckoutOrchestrator turns a validated cart into a persisted order: it
// verifies availability, prices the promo and the delivery fee, creates the
// order atomically and then best-effort requests a payment link and queues
// notifications.
type CheckoutOrchestrator struct {
	orders       repository.OrderStore
	catalog      repository.CatalogStore
	promos       *PromoEngine
	availability *AvailabilityGuard
	fees         feeQuoter
	payments     square.Client
	events       eventSink

	freeDeliveryAt decimal.Decimal
	rates          repository.DeliveryStore
	notifyEmail    string
	logger         *slog.Logger
	now            func() time.Time
}

func NewCheckoutOrchestrator(
	orders repository.OrderStore,
	catalog repository.CatalogStore,
	delivery repository.DeliveryStore,
	promos *PromoEngine,
	availability *AvailabilityGuard,
	fees feeQuoter,
	payments square.Client,
	events eventSink,
	freeDeliveryAt decimal.Decimal,
	notifyEmail string,
	logger *slog.Logger,
) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{
		orders:         orders,
		catalog:        catalog,
		rates:          delivery,
		promos:         promos,
		availability:   availability,
		fees:           fees,
		payments:       payments,
		events:         events,
		freeDeliveryAt: freeDeliveryAt,
		notifyEmail:    notifyEmail,
		logger:         logger,
		now:            time.Now,
	}
}

// Checkout places an order. Validation failures come back as the package's
// sentinel errors; once the order row exists the remaining steps (payment
// link, notifications) cannot fail the call.
func (o *CheckoutOrchestrator) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	// The storefront form defaults to delivery, so an absent method means
	// delivery. Anything else unrecognized is a bad request, not a guess.
	switch req.Fulfillment {
	case "":
		req.Fulfillment = domain.FulfillmentDelivery
	case domain.FulfillmentDelivery, domain.FulfillmentPickup:
	default:
		return nil, ErrInvalidFulfillment
	}

	promo, err := o.promos.Validate(ctx, req.PromoCode)
	if err != nil {
		return nil, err
	}
	if err := o.checkFulfillment(ctx, req); err != nil {
		return nil, err
	}

	lines, err := o.buildLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerName: req.Name,
		Email:        req.Email,
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.Zip,
		Fulfillment:  req.Fulfillment,
		PickupNote:   req.PickupNote,
		PickupAt:     req.PickupAt,
		Lines:        lines,
	}

	subtotal := order.Subtotal()

	var promoID int64
	if promo != nil {
		promoID = promo.ID
		order.PromoCode = promo.Code
		order.DiscountAmount = o.promos.Apply(promo, subtotal)
	}

	order.DeliveryFee, err = o.deliveryFee(ctx, req, subtotal.Sub(order.DiscountAmount))
	if err != nil {
		return nil, err
	}

	id, err := o.orders.CreateOrder(ctx, order, promoID)
	if err != nil {
		if errors.Is(err, repository.ErrPromoExhausted) {
			return nil, ErrPromoLimitMet
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.ID = id

	result := &CheckoutResult{Order: order}
	result.PaymentURL = o.requestPaymentLink(ctx, order)

	o.events.Dispatch(notify.Event{
		Kind:       notify.KindOrderReceived,
		OrderID:    order.ID,
		Total:      order.Total().StringFixed(2),
		Recipients: recipients(order.Email, o.notifyEmail),
	})

	return result, nil
}

// buildLines loads the cart's products and snapshots their current prices.
func (o *CheckoutOrchestrator) buildLines(ctx context.Context, items []CartItem) ([]domain.OrderLine, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := o.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, ErrUnknownProduct
		}
		if !p.Active {
			return nil, ErrInactiveProduct
		}
		lines = append(lines, domain.OrderLine{
			ProductID:         p.ID,
			ProductName:       p.Name,
			Quantity:          item.Quantity,
			UnitPrice:         p.Price,
			SquareVariationID: p.SquareVariationID,
		})
	}
	return lines, nil
}

func (o *CheckoutOrchestrator) checkFulfillment(ctx context.Context, req CheckoutRequest) error {
	switch req.Fulfillment {
	case domain.FulfillmentPickup:
		if req.PickupAt == nil {
			return ErrPickupRequired
		}
		return o.availability.ValidatePickup(ctx, *req.PickupAt)
	default:
		if req.Address == "" || req.Zip == "" {
			return ErrMissingAddress
		}
		return o.availability.CheckDelivery(ctx, req.Zip, o.now())
	}
}

// deliveryFee resolves the fee in precedence order: pickup is free, then the
// free-delivery threshold on the discounted subtotal, then a flat per-ZIP
// rate, then the distance tiers.
func (o *CheckoutOrchestrator) deliveryFee(ctx context.Context, req CheckoutRequest, discounted decimal.Decimal) (decimal.Decimal, error) {
	if req.Fulfillment == domain.FulfillmentPickup {
		return decimal.Zero, nil
	}
	if o.freeDeliveryAt.IsPositive() && discounted.GreaterThanOrEqual(o.freeDeliveryAt) {
		return decimal.Zero, nil
	}

	rate, err := o.rates.RateForZip(ctx, req.Zip)
	if err == nil {
		return rate.Fee, nil
	}
	if !errors.Is(err, repository.ErrRateNotFound) {
		return decimal.Zero, fmt.Errorf("look up delivery rate: %w", err)
	}

	return o.fees.Fee(ctx, req.Zip), nil
}

// requestPaymentLink asks for a hosted payment page. Failures are logged and
// swallowed; staff can collect payment out of band.
func (o *CheckoutOrchestrator) requestPaymentLink(ctx context.Context, order *domain.Order) string {
	url, err := o.payments.CreatePaymentLink(ctx, square.PaymentLinkRequest{
		OrderID: order.ID,
		Amount:  order.Total(),
		Note:    fmt.Sprintf("Auntie Jummy's Order #%d", order.ID),
	})
	if err != nil {
		o.logger.Warn("payment link creation failed", "order_id", order.ID, "error", err)
		return ""
	}
	return url
}

func recipients(customer, shop string) []string {
	out := []string{customer}
	if shop != "" {
		out = append(out, shop)
	}
	return out
}
