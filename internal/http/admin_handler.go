package http

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/service"
)

type catalogSyncer interface {
	Sync(ctx context.Context) (*service.SyncResult, error)
}

type orderExporter interface {
	RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error)
}

type AdminHandler struct {
	syncer      catalogSyncer
	orders      orderExporter
	exportLimit int
	logger      *slog.Logger
}

func NewAdminHandler(syncer catalogSyncer, orders orderExporter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		syncer:      syncer,
		orders:      orders,
		exportLimit: 1000,
		logger:      logger,
	}
}

// POST /staff/sync
func (h *AdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		h.logger.Error("catalog sync failed", "error", err)
		respondError(w, http.StatusBadGateway, "sync_failed", "catalog sync failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

var exportHeader = []string{
	"id", "created", "name", "email", "address", "city", "state", "zip",
	"paid", "total", "promo", "discount", "delivery_fee", "fulfillment",
	"pickup_at", "pickup_note",
}

// GET /staff/orders/export.csv
func (h *AdminHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.RecentOrders(r.Context(), h.exportLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load orders")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		h.logger.Error("csv write failed", "error", err)
		return
	}
	for _, o := range orders {
		if err := cw.Write(exportRow(o)); err != nil {
			h.logger.Error("csv write failed", "order_id", o.ID, "error", err)
			return
		}
	}
	cw.Flush()
}

func exportRow(o *domain.Order) []string {
	pickupAt := ""
	if o.PickupAt != nil {
		pickupAt = o.PickupAt.Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(o.ID, 10),
		o.Created.Format(time.RFC3339),
		o.CustomerName,
		o.Email,
		o.Address,
		o.City,
		o.State,
		o.ZipCode,
		strconv.FormatBool(o.Paid),
		o.Total().StringFixed(2),
		o.PromoCode,
		o.DiscountAmount.StringFixed(2),
		o.DeliveryFee.StringFixed(2),
		string(o.Fulfillment),
		pickupAt,
		o.PickupNote,
	}
}
