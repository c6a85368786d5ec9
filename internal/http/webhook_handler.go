package http

import (
	"context"
	"io"
	"net/http"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/service"
)

const signatureHeader = "x-square-hmacsha256-signature"

type paymentReconciler interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) service.Outcome
}

type WebhookHandler struct {
	reconciler paymentReconciler
	maxBody    int64
}

func NewWebhookHandler(reconciler paymentReconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, maxBody: 1 << 20}
}

// Payments processes webhook deliveries from the payment platform. The
// platform retries aggressively, so non-POST probes and unknown events get a
// friendly 200 rather than an error it would keep retrying.
func (h *WebhookHandler) Payments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}

	outcome := h.reconciler.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader))
	switch outcome.Kind {
	case service.OutcomeUpdated:
		respondJSON(w, http.StatusOK, map[string]int64{"updated": outcome.OrderID})
	case service.OutcomeIgnored:
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": outcome.Reason})
	case service.OutcomeBadPayload:
		respondJSON(w, http.StatusBadRequest, map[string]string{"status": "ignored", "reason": outcome.Reason})
	case service.OutcomeForbidden:
		respondError(w, http.StatusForbidden, "invalid_signature", "invalid signature")
	}
}
