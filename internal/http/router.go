package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. The webhook route accepts any method because
// the payment platform health-checks it with GETs.
func NewRouter(checkout *CheckoutHandler, webhook *WebhookHandler, admin *AdminHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", checkout.Checkout)
		r.Get("/pickup-slots", checkout.PickupSlots)
		r.Get("/products", checkout.Products)
	})

	r.HandleFunc("/webhooks/square", webhook.Payments)

	r.Route("/staff", func(r chi.Router) {
		r.Post("/sync", admin.Sync)
		r.Get("/orders/export.csv", admin.ExportOrders)
	})

	return r
}
