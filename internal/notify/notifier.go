// Package notify publishes customer/operator notification events. Delivery
// (rendering and sending the actual emails) belongs to a downstream consumer;
// this side only guarantees best-effort publication that can never fail a
// checkout or a webhook.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	KindOrderReceived    = "order_received"
	KindPaymentConfirmed = "payment_confirmed"
)

// Event is one notification to fan out.
type Event struct {
	Kind       string    `json:"kind"`
	OrderID    int64     `json:"order_id"`
	Total      string    `json:"total"`
	Recipients []string  `json:"recipients"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier publishes a single event.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Dispatcher decouples notification publishing from the request path: events
// are queued and published by a background goroutine, failures go to the log
// sink and nowhere else.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	events   chan Event
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		logger:   logger,
		events:   make(chan Event, 64),
		stop:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.events:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := d.notifier.Publish(ctx, ev); err != nil {
				d.logger.Warn("notification publish failed",
					"kind", ev.Kind, "order_id", ev.OrderID, "error", err)
			}
			cancel()
		case <-d.stop:
			return
		}
	}
}

// Dispatch queues an event without blocking. A full queue drops the event;
// notifications are best-effort by contract.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("notification queue full, dropping event",
			"kind", ev.Kind, "order_id", ev.OrderID)
	}
}

// Close drains nothing: queued-but-unsent events are lost, which is
// acceptable for best-effort notifications.
func (d *Dispatcher) Close() error {
	close(d.stop)
	d.wg.Wait()
	return d.notifier.Close()
}
