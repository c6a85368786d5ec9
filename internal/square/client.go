// Package square is the client for the external payment/inventory platform.
// Only four operations are used: paginated catalog listing, inventory count
// retrieval, inventory adjustment and payment-link creation. All calls go
// through a circuit breaker so a flapping platform cannot pile up latency
// inside checkout or sync.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const (
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	productionBaseURL = "https://connect.squareup.com"
)

var ErrNoAccessToken = errors.New("missing square access token")

// Client is the narrow platform contract the services depend on.
type Client interface {
	ListCatalog(ctx context.Context, cursor string) (*CatalogPage, error)
	BatchRetrieveCounts(ctx context.Context) (map[string]int, error)
	BatchAdjustInventory(ctx context.Context, adjustments []InventoryAdjustment) error
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (string, error)
}

// APIClient talks HTTP to Square.
type APIClient struct {
	baseURL    string
	token      string
	locationID string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

type Config struct {
	Environment string // "sandbox" or "production"
	AccessToken string
	LocationID  string
	BaseURL     string // overrides Environment when set (tests)
}

func NewAPIClient(cfg Config) (*APIClient, error) {
	if cfg.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if cfg.Environment == "production" {
			baseURL = productionBaseURL
		}
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "square",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &APIClient{
		baseURL:    baseURL,
		token:      cfg.AccessToken,
		locationID: cfg.LocationID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    breaker,
	}, nil
}

// Disabled satisfies Client when no access token is configured. Every call
// fails fast; callers already treat platform calls as best-effort or surface
// the error to staff.
type Disabled struct{}

func (Disabled) ListCatalog(context.Context, string) (*CatalogPage, error) {
	return nil, ErrNoAccessToken
}

func (Disabled) BatchRetrieveCounts(context.Context) (map[string]int, error) {
	return nil, ErrNoAccessToken
}

func (Disabled) BatchAdjustInventory(context.Context, []InventoryAdjustment) error {
	return ErrNoAccessToken
}

func (Disabled) CreatePaymentLink(context.Context, PaymentLinkRequest) (string, error) {
	return "", ErrNoAccessToken
}

type errorEnvelope struct {
	Errors []APIError `json:"errors"`
}

// do runs one request through the breaker and returns the response body.
// Non-2xx responses surface Square's first listed error.
func (c *APIClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var envelope errorEnvelope
			if json.Unmarshal(data, &envelope) == nil && len(envelope.Errors) > 0 {
				return nil, fmt.Errorf("%s %s: %w", method, path, envelope.Errors[0])
			}
			return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
		}
		return data, nil
	})
}

func (c *APIClient) ListCatalog(ctx context.Context, cursor string) (*CatalogPage, error) {
	q := url.Values{}
	q.Set("types", "ITEM,ITEM_VARIATION,CATEGORY")
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	data, err := c.do(ctx, http.MethodGet, "/v2/catalog/list?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var page CatalogPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode catalog page: %w", err)
	}
	return &page, nil
}

func (c *APIClient) BatchRetrieveCounts(ctx context.Context) (map[string]int, error) {
	payload := map[string]any{"location_ids": []string{}}
	if c.locationID != "" {
		payload["location_ids"] = []string{c.locationID}
	}

	data, err := c.do(ctx, http.MethodPost, "/v2/inventory/counts/batch-retrieve", payload)
	if err != nil {
		return nil, err
	}

	var body struct {
		Counts []struct {
			CatalogObjectID string `json:"catalog_object_id"`
			Quantity        string `json:"quantity"`
		} `json:"counts"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode inventory counts: %w", err)
	}

	counts := make(map[string]int, len(body.Counts))
	for _, count := range body.Counts {
		if count.CatalogObjectID == "" {
			continue
		}
		qty, err := strconv.ParseFloat(count.Quantity, 64)
		if err != nil {
			continue
		}
		counts[count.CatalogObjectID] = int(qty)
	}
	return counts, nil
}

func (c *APIClient) BatchAdjustInventory(ctx context.Context, adjustments []InventoryAdjustment) error {
	changes := make([]map[string]any, 0, len(adjustments))
	for _, adj := range adjustments {
		if adj.CatalogObjectID == "" || adj.Quantity <= 0 {
			continue
		}
		changes = append(changes, map[string]any{
			"type": "ADJUSTMENT",
			"adjustment": map[string]any{
				"catalog_object_id": adj.CatalogObjectID,
				"from_state":        "IN_STOCK",
				"to_state":          "SOLD",
				"location_id":       c.locationID,
				"quantity":          strconv.Itoa(adj.Quantity),
				"reason":            "SALE",
			},
		})
	}
	if len(changes) == 0 {
		return nil
	}

	payload := map[string]any{
		"idempotency_key": "inv-adjust-" + uuid.New().String(),
		"changes":         changes,
	}
	_, err := c.do(ctx, http.MethodPost, "/v2/inventory/changes/batch-create", payload)
	return err
}

func (c *APIClient) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (string, error) {
	cents := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	payload := map[string]any{
		"idempotency_key": fmt.Sprintf("order-%d", req.OrderID),
		"quick_pay": map[string]any{
			"name":        fmt.Sprintf("Auntie Jummy's Order #%d", req.OrderID),
			"price_money": map[string]any{"amount": cents, "currency": "USD"},
			"location_id": c.locationID,
			"note":        req.Note,
		},
	}

	data, err := c.do(ctx, http.MethodPost, "/v2/online-checkout/payment-links", payload)
	if err != nil {
		return "", err
	}

	var body struct {
		PaymentLink struct {
			URL string `json:"url"`
		} `json:"payment_link"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("decode payment link: %w", err)
	}
	return body.PaymentLink.URL, nil
}
