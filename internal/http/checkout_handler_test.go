package http

import (
	"context"
	"encoding/json"
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

type stubCheckout struct {
	gotReq service.CheckoutRequest
	result *service.CheckoutResult
	err    error
}

func (s *stubCheckout) Checkout(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubSlots struct {
	slots []domain.PickupSlot
	err   error
}

func (s *stubSlots) PickupSlots(context.Context) ([]domain.PickupSlot, error) {
	return s.slots, s.err
}

type stubCatalog struct {
	products []*domain.Product
	err      error
}

func (s *stubCatalog) ActiveProducts(context.Context) ([]*domain.Product, error) {
	return s.products, s.err
}

func placedOrder() *domain.Order {
	return &domain.Order{
		ID: 42,
		Lines: []domain.OrderLine{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("9.99")},
		},
		DiscountAmount: decimal.RequireFromString("2.00"),
		DeliveryFee:    decimal.RequireFromString("5.00"),
	}
}

func newCheckoutTestHandler(checkout *stubCheckout) *CheckoutHandler {
	return NewCheckoutHandler(checkout, &stubSlots{}, &stubCatalog{}, time.Second)
}

func TestCheckoutEndpoint(t *testing.T) {
	checkout := &stubCheckout{result: &service.CheckoutResult{
		Order:      placedOrder(),
		PaymentURL: "https://pay.example/abc",
	}}
	h := newCheckoutTestHandler(checkout)

	body := `{
		"name": "Ada",
		"email": "ada@example.com",
		"address": "12 Main St",
		"zip": "46112",
		"fulfillment": "delivery",
		"promo_code": "WELCOME10",
		"items": [{"product_id": 1, "quantity": 2}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.OrderID)
	assert.Equal(t, "19.98", resp.Subtotal)
	assert.Equal(t, "2.00", resp.Discount)
	assert.Equal(t, "5.00", resp.DeliveryFee)
	assert.Equal(t, "22.98", resp.Total)
	assert.Equal(t, "https://pay.example/abc", resp.PaymentURL)

	assert.Equal(t, domain.FulfillmentDelivery, checkout.gotReq.Fulfillment)
	assert.Equal(t, "WELCOME10", checkout.gotReq.PromoCode)
	require.Len(t, checkout.gotReq.Items, 1)
	assert.Equal(t, int64(1), checkout.gotReq.Items[0].ProductID)
}

func TestCheckoutEndpointBadJSON(t *testing.T) {
	h := newCheckoutTestHandler(&stubCheckout{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpointMissingContact(t *testing.T) {
	h := newCheckoutTestHandler(&stubCheckout{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items":[]}`))
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpointRejectionMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{service.ErrEmptyCart, "empty_cart"},
		{service.ErrOutOfZone, "out_of_zone"},
		{service.ErrOutOfWindow, "out_of_window"},
		{service.ErrPromoExpired, "invalid_promo"},
		{service.ErrPickupOutOfRange, "invalid_pickup_time"},
	}

	for _, tc := range cases {
		h := newCheckoutTestHandler(&stubCheckout{err: tc.err})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout",
			strings.NewReader(`{"name":"Ada","email":"a@b.c","items":[]}`))
		w := httptest.NewRecorder()
		h.Checkout(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, tc.code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tc.code, resp.Code)
		assert.Equal(t, tc.err.Error(), resp.Error)
	}
}

func TestCheckoutEndpointInternalError(t *testing.T) {
	h := newCheckoutTestHandler(&stubCheckout{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout",
		strings.NewReader(`{"name":"Ada","email":"a@b.c","items":[]}`))
	w := httptest.NewRecorder()
	h.Checkout(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPickupSlotsEndpoint(t *testing.T) {
	at := time.Date(2026, time.September, 1, 10, 30, 0, 0, time.UTC)
	slots := &stubSlots{slots: []domain.PickupSlot{{Label: "Tue Sep 01, 10:30 AM", At: at}}}
	h := NewCheckoutHandler(&stubCheckout{}, slots, &stubCatalog{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pickup-slots", nil)
	w := httptest.NewRecorder()
	h.PickupSlots(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PickupSlotsResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "Tue Sep 01, 10:30 AM", resp.Slots[0].Label)
}

func TestPickupSlotsEndpointEmpty(t *testing.T) {
	h := NewCheckoutHandler(&stubCheckout{}, &stubSlots{}, &stubCatalog{}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pickup-slots", nil)
	w := httptest.NewRecorder()
	h.PickupSlots(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"slots":[]}`, w.Body.String())
}

func TestProductsEndpoint(t *testing.T) {
	catalog := &stubCatalog{products: []*domain.Product{
		{ID: 1, Name: "Chin Chin", Slug: "chin-chin", Price: decimal.RequireFromString("9.99"), Stock: 4, Active: true},
	}}
	h := NewCheckoutHandler(&stubCheckout{}, &stubSlots{}, catalog, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	w := httptest.NewRecorder()
	h.Products(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp []ProductDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "9.99", resp[0].Price)
}
