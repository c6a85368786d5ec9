package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/service"
)

type checkoutService interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

type slotLister interface {
	PickupSlots(ctx context.Context) ([]domain.PickupSlot, error)
}

type productLister interface {
	ActiveProducts(ctx context.Context) ([]*domain.Product, error)
}

type CheckoutHandler struct {
	checkout checkoutService
	slots    slotLister
	catalog  productLister
	timeout  time.Duration
}

func NewCheckoutHandler(checkout checkoutService, slots slotLister, catalog productLister, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		slots:    slots,
		catalog:  catalog,
		timeout:  timeout,
	}
}

type CartItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CheckoutRequestDTO struct {
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Address     string        `json:"address"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	Zip         string        `json:"zip"`
	Fulfillment string        `json:"fulfillment"`
	PickupAt    *time.Time    `json:"pickup_at,omitempty"`
	PickupNote  string        `json:"pickup_note,omitempty"`
	PromoCode   string        `json:"promo_code,omitempty"`
	Items       []CartItemDTO `json:"items"`
}

type CheckoutResponseDTO struct {
	OrderID     int64  `json:"order_id"`
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	DeliveryFee string `json:"delivery_fee"`
	Total       string `json:"total"`
	PaymentURL  string `json:"payment_url,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var dto CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if dto.Name == "" || dto.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name and email are required")
		return
	}

	items := make([]service.CartItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, service.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := h.checkout.Checkout(ctx, service.CheckoutRequest{
		Name:        dto.Name,
		Email:       dto.Email,
		Address:     dto.Address,
		City:        dto.City,
		State:       dto.State,
		Zip:         dto.Zip,
		Fulfillment: domain.FulfillmentMethod(dto.Fulfillment),
		PickupAt:    dto.PickupAt,
		PickupNote:  dto.PickupNote,
		PromoCode:   dto.PromoCode,
		Items:       items,
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	order := result.Order
	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:     order.ID,
		Subtotal:    order.Subtotal().StringFixed(2),
		Discount:    order.DiscountAmount.StringFixed(2),
		DeliveryFee: order.DeliveryFee.StringFixed(2),
		Total:       order.Total().StringFixed(2),
		PaymentURL:  result.PaymentURL,
	})
}

// checkoutErrorCodes maps the service's validation rejections to stable API
// error codes. Anything unmapped is a server fault.
var checkoutErrorCodes = map[error]string{
	service.ErrEmptyCart:          "empty_cart",
	service.ErrInvalidFulfillment: "invalid_fulfillment",
	service.ErrInvalidQuantity:    "invalid_quantity",
	service.ErrUnknownProduct:     "unknown_product",
	service.ErrInactiveProduct:    "unavailable_product",
	service.ErrMissingAddress:     "missing_address",
	service.ErrPromoInvalid:       "invalid_promo",
	service.ErrPromoInactive:      "invalid_promo",
	service.ErrPromoNotStarted:    "invalid_promo",
	service.ErrPromoExpired:       "invalid_promo",
	service.ErrPromoLimitMet:      "invalid_promo",
	service.ErrOutOfZone:          "out_of_zone",
	service.ErrOutOfWindow:        "out_of_window",
	service.ErrPickupRequired:     "invalid_pickup_time",
	service.ErrPickupOutOfRange:   "invalid_pickup_time",
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	for sentinel, code := range checkoutErrorCodes {
		if errors.Is(err, sentinel) {
			respondError(w, http.StatusBadRequest, code, sentinel.Error())
			return
		}
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

type PickupSlotsResponseDTO struct {
	Slots []domain.PickupSlot `json:"slots"`
}

// GET /api/v1/pickup-slots
func (h *CheckoutHandler) PickupSlots(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	slots, err := h.slots.PickupSlots(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load pickup slots")
		return
	}
	if slots == nil {
		slots = []domain.PickupSlot{}
	}
	respondJSON(w, http.StatusOK, PickupSlotsResponseDTO{Slots: slots})
}

type ProductDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     string `json:"price"`
	Stock     int    `json:"stock"`
	Allergens string `json:"allergens,omitempty"`
	Featured  bool   `json:"featured"`
}

// GET /api/v1/products
func (h *CheckoutHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ActiveProducts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load products")
		return
	}

	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ProductDTO{
			ID:        p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price.StringFixed(2),
			Stock:     p.Stock,
			Allergens: p.Allergens,
			Featured:  p.Featured,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
