package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/notify"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/square"
)

// OutcomeKind classifies what a webhook delivery resulted in.
type OutcomeKind int

const (
	OutcomeUpdated OutcomeKind = iota
	OutcomeIgnored
	OutcomeBadPayload
	OutcomeForbidden
)

// Outcome is the reconciler's verdict on one webhook delivery. Ignored and
// BadPayload carry a Reason; Updated carries the order id.
type Outcome struct {
	Kind    OutcomeKind
	OrderID int64
	Reason  string
}

// Payments are matched back to orders by scanning free-text payment fields
// for an embedded order number. The looseness is intentional: upstream text
// varies and a missed match only means a manual reconciliation.
var (
	orderRefPattern  = regexp.MustCompile(`[# ](\d{1,7})`)
	orderRefFallback = regexp.MustCompile(`(?i)Order\s*#?(\d{1,7})`)
)

// PaymentReconciler consumes payment webhooks from the external platform and
// flips the referenced order to paid, exactly once.
type PaymentReconciler struct {
	orders       repository.OrderStore
	client       square.Client
	events       eventSink
	signatureKey string
	notifyEmail  string
	logger       *slog.Logger
}

func NewPaymentReconciler(
	orders repository.OrderStore,
	client square.Client,
	events eventSink,
	signatureKey string,
	notifyEmail string,
	logger *slog.Logger,
) *PaymentReconciler {
	return &PaymentReconciler{
		orders:       orders,
		client:       client,
		events:       events,
		signatureKey: signatureKey,
		notifyEmail:  notifyEmail,
		logger:       logger,
	}
}

// VerifySignature checks the webhook signature header against an HMAC-SHA256
// digest of the raw body. With no key configured every delivery passes; that
// open mode is for development only.
func (r *PaymentReconciler) VerifySignature(body []byte, signature string) bool {
	if r.signatureKey == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(r.signatureKey))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type webhookPayment struct {
	Note                 string `json:"note"`
	StatementDescription string `json:"statement_description"`
	OrderID              string `json:"order_id"`
	ID                   string `json:"id"`
}

type webhookEnvelope struct {
	Data struct {
		Object struct {
			Payment *webhookPayment `json:"payment"`
		} `json:"object"`
	} `json:"data"`
	Payment *webhookPayment `json:"payment"`
}

// HandleWebhook processes one delivery. Deliveries may be duplicated or
// retried upstream: the paid flag's first flip gates the financial side
// effects, so a replay returns Updated again without double-applying them.
func (r *PaymentReconciler) HandleWebhook(ctx context.Context, body []byte, signature string) Outcome {
	if !r.VerifySignature(body, signature) {
		return Outcome{Kind: OutcomeForbidden}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Outcome{Kind: OutcomeBadPayload, Reason: "invalid json"}
	}

	payment := envelope.Data.Object.Payment
	if payment == nil {
		payment = envelope.Payment
	}

	orderID := extractOrderID(payment, body)
	if orderID == 0 {
		return Outcome{Kind: OutcomeIgnored, Reason: "no order id text"}
	}

	firstFlip, err := r.orders.MarkPaid(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return Outcome{Kind: OutcomeIgnored, Reason: "unknown order"}
		}
		r.logger.Error("failed to mark order paid", "order_id", orderID, "error", err)
		return Outcome{Kind: OutcomeIgnored, Reason: "store unavailable"}
	}

	if firstFlip {
		r.applySideEffects(ctx, orderID)
	}

	return Outcome{Kind: OutcomeUpdated, OrderID: orderID}
}

// applySideEffects runs the once-per-order follow-ups: the confirmation
// notification, the upstream inventory deduction and the sales counters. All
// best-effort; the payment itself already succeeded.
func (r *PaymentReconciler) applySideEffects(ctx context.Context, orderID int64) {
	order, err := r.orders.OrderByID(ctx, orderID)
	if err != nil {
		r.logger.Error("failed to load paid order", "order_id", orderID, "error", err)
		return
	}

	r.events.Dispatch(notify.Event{
		Kind:       notify.KindPaymentConfirmed,
		OrderID:    order.ID,
		Total:      order.Total().StringFixed(2),
		Recipients: recipients(order.Email, r.notifyEmail),
	})

	if adjustments := inventoryAdjustments(order); len(adjustments) > 0 {
		if err := r.client.BatchAdjustInventory(ctx, adjustments); err != nil {
			r.logger.Warn("inventory deduction push failed", "order_id", orderID, "error", err)
		}
	}

	for _, line := range order.Lines {
		if err := r.orders.IncrementSales(ctx, line.ProductID, line.Quantity); err != nil {
			r.logger.Warn("sales count increment failed",
				"order_id", orderID, "product_id", line.ProductID, "error", err)
		}
	}
}

func inventoryAdjustments(order *domain.Order) []square.InventoryAdjustment {
	var out []square.InventoryAdjustment
	for _, line := range order.Lines {
		if line.SquareVariationID == "" {
			continue
		}
		out = append(out, square.InventoryAdjustment{
			CatalogObjectID: line.SquareVariationID,
			Quantity:        line.Quantity,
		})
	}
	return out
}

// extractOrderID scans the payment's free-text fields for a "# 123"-style
// reference, then falls back to an "Order #123" scan over the whole body.
func extractOrderID(payment *webhookPayment, body []byte) int64 {
	if payment != nil {
		for _, field := range []string{payment.Note, payment.StatementDescription, payment.OrderID, payment.ID} {
			if field == "" {
				continue
			}
			if m := orderRefPattern.FindStringSubmatch(field); m != nil {
				return mustParseOrderID(m[1])
			}
		}
	}
	if m := orderRefFallback.FindSubmatch(body); m != nil {
		return mustParseOrderID(string(m[1]))
	}
	return 0
}

func mustParseOrderID(digits string) int64 {
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
