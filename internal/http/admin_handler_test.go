package http

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/service"
)

type stubSyncer struct {
	result *service.SyncResult
	err    error
}

func (s *stubSyncer) Sync(context.Context) (*service.SyncResult, error) {
	return s.result, s.err
}

type stubOrders struct {
	orders []*domain.Order
	err    error
}

func (s *stubOrders) RecentOrders(context.Context, int) ([]*domain.Order, error) {
	return s.orders, s.err
}

func TestSyncEndpoint(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{result: &service.SyncResult{Created: 3, Updated: 1}}, &stubOrders{}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/staff/sync", nil)
	w := httptest.NewRecorder()
	h.Sync(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"created":3,"updated":1}`, w.Body.String())
}

func TestSyncEndpointUpstreamFailure(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{err: errors.New("upstream down")}, &stubOrders{}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/staff/sync", nil)
	w := httptest.NewRecorder()
	h.Sync(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExportOrdersCSV(t *testing.T) {
	created := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	pickupAt := time.Date(2026, time.September, 1, 11, 0, 0, 0, time.UTC)
	orders := &stubOrders{orders: []*domain.Order{
		{
			ID:             7,
			CustomerName:   "Ada",
			Email:          "ada@example.com",
			Address:        "12 Main St",
			City:           "Brownsburg",
			State:          "IN",
			ZipCode:        "46112",
			Created:        created,
			Paid:           true,
			PromoCode:      "WELCOME10",
			DiscountAmount: decimal.RequireFromString("2.35"),
			DeliveryFee:    decimal.Zero,
			Fulfillment:    domain.FulfillmentPickup,
			PickupNote:     "ring the side bell",
			PickupAt:       &pickupAt,
			Lines: []domain.OrderLine{
				{Quantity: 2, UnitPrice: decimal.RequireFromString("9.99")},
			},
		},
	}}
	h := NewAdminHandler(&stubSyncer{}, orders, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/staff/orders/export.csv", nil)
	w := httptest.NewRecorder()
	h.ExportOrders(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, exportHeader, rows[0])

	row := rows[1]
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "Ada", row[2])
	assert.Equal(t, "true", row[8])
	assert.Equal(t, "17.63", row[9]) // 19.98 - 2.35 + 0.00
	assert.Equal(t, "WELCOME10", row[10])
	assert.Equal(t, "2.35", row[11])
	assert.Equal(t, "pickup", row[13])
	assert.Equal(t, "2026-09-01T11:00:00Z", row[14])
	assert.Equal(t, "ring the side bell", row[15])
}

func TestExportOrdersStoreFailure(t *testing.T) {
	h := NewAdminHandler(&stubSyncer{}, &stubOrders{err: errors.New("db down")}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/staff/orders/export.csv", nil)
	w := httptest.NewRecorder()
	h.ExportOrders(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
