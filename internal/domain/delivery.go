package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is an open interval of a weekday during which delivery is accepted
// or pickup slots exist. Start and End are minutes since local midnight;
// bounds are inclusive.
type Window struct {
	ID      int64
	Weekday time.Weekday
	Start   int
	End     int
}

// Contains reports whether t (in its own location) falls within the window.
func (w Window) Contains(t time.Time) bool {
	if t.Weekday() != w.Weekday {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return m >= w.Start && m <= w.End
}

// StartAt anchors the window's opening instant on the given calendar day.
func (w Window) StartAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.Start/60, w.Start%60, 0, 0, day.Location())
}

// EndAt anchors the window's closing instant on the given calendar day.
func (w Window) EndAt(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), w.End/60, w.End%60, 0, 0, day.Location())
}

// DeliveryRate is a flat per-ZIP fee override that takes precedence over the
// tiered geo fee for delivery orders.
type DeliveryRate struct {
	PostalCode string
	Fee        decimal.Decimal
}

// PickupSlot is one selectable pickup time presented to the storefront.
type PickupSlot struct {
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}
