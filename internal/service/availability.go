package service

import (
	"context"
	"fmt"
	"time"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
)

const (
	slotInterval   = 30 * time.Minute
	pickupHorizon  = 2 // today and tomorrow
	slotTimeLayout = "Mon Jan 02, 03:04 PM"
)

// AvailabilityGuard answers whether an order can be fulfilled: delivery zone
// and window checks for delivery orders, slot generation and validation for
// pickup orders.
type AvailabilityGuard struct {
	store repository.DeliveryStore
	now   func() time.Time
}

func NewAvailabilityGuard(store repository.DeliveryStore) *AvailabilityGuard {
	return &AvailabilityGuard{store: store, now: time.Now}
}

// CheckDelivery verifies zip is inside the delivery area and that at falls
// within a configured delivery window for its weekday.
func (g *AvailabilityGuard) CheckDelivery(ctx context.Context, zip string, at time.Time) error {
	inZone, err := g.store.ZoneContains(ctx, zip)
	if err != nil {
		return fmt.Errorf("check delivery zone: %w", err)
	}
	if !inZone {
		return ErrOutOfZone
	}

	windows, err := g.store.DeliveryWindows(ctx, at.Weekday())
	if err != nil {
		return fmt.Errorf("load delivery windows: %w", err)
	}
	for _, w := range windows {
		if w.Contains(at) {
			return nil
		}
	}
	return ErrOutOfWindow
}

// PickupSlots generates the selectable pickup times for today and tomorrow:
// every half hour from each window's start through its end minus one slot,
// with slots already in the past suppressed.
func (g *AvailabilityGuard) PickupSlots(ctx context.Context) ([]domain.PickupSlot, error) {
	now := g.now()
	var slots []domain.PickupSlot

	for offset := 0; offset < pickupHorizon; offset++ {
		day := now.AddDate(0, 0, offset)
		windows, err := g.store.PickupWindows(ctx, day.Weekday())
		if err != nil {
			return nil, fmt.Errorf("load pickup windows: %w", err)
		}
		for _, w := range windows {
			start := w.StartAt(day)
			end := w.EndAt(day)
			for at := start; !at.After(end.Add(-slotInterval)); at = at.Add(slotInterval) {
				if !at.After(now) {
					continue
				}
				slots = append(slots, domain.PickupSlot{
					Label: at.Format(slotTimeLayout),
					At:    at,
				})
			}
		}
	}
	return slots, nil
}

// ValidatePickup confirms at is one of the currently offered slots.
func (g *AvailabilityGuard) ValidatePickup(ctx context.Context, at time.Time) error {
	if at.IsZero() {
		return ErrPickupRequired
	}
	slots, err := g.PickupSlots(ctx)
	if err != nil {
		return err
	}
	for _, s := range slots {
		if s.At.Equal(at) {
			return nil
		}
	}
	return ErrPickupOutOfRange
}
