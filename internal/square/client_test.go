package square

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*APIClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewAPIClient(Config{
		AccessToken: "test-token",
		LocationID:  "LOC1",
		BaseURL:     srv.URL,
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewAPIClient_RequiresToken(t *testing.T) {
	_, err := NewAPIClient(Config{})
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestListCatalog_Pagination(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "ITEM,ITEM_VARIATION", r.URL.Query().Get("types"))

		if r.URL.Query().Get("cursor") == "" {
			json.NewEncoder(w).Encode(CatalogPage{
				Objects: []CatalogObject{{Type: "ITEM", ID: "I1", ItemData: &ItemData{Name: "Gummy Bears"}}},
				Cursor:  "page-2",
			})
			return
		}
		json.NewEncoder(w).Encode(CatalogPage{
			Objects: []CatalogObject{{
				Type: "ITEM_VARIATION",
				ID:   "V1",
				ItemVariationData: &ItemVariationData{
					ItemID:     "I1",
					Name:       "5oz",
					PriceMoney: &Money{Amount: 349, Currency: "USD"},
				},
			}},
		})
	})

	page1, err := client.ListCatalog(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "page-2", page1.Cursor)
	require.Len(t, page1.Objects, 1)
	assert.Equal(t, "Gummy Bears", page1.Objects[0].ItemData.Name)

	page2, err := client.ListCatalog(context.Background(), page1.Cursor)
	require.NoError(t, err)
	assert.Empty(t, page2.Cursor)
	assert.Equal(t, "3.49", page2.Objects[0].ItemVariationData.PriceMoney.Decimal().StringFixed(2))
}

func TestDo_SurfacesAPIErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []APIError{{Category: "AUTHENTICATION_ERROR", Code: "UNAUTHORIZED", Detail: "bad token"}},
		})
	})

	_, err := client.ListCatalog(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTHENTICATION_ERROR/UNAUTHORIZED")
}

func TestBatchRetrieveCounts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"LOC1"}, body["location_ids"])

		w.Write([]byte(`{"counts":[
			{"catalog_object_id":"V1","quantity":"12"},
			{"catalog_object_id":"V2","quantity":"3.0"},
			{"catalog_object_id":"","quantity":"9"},
			{"catalog_object_id":"V3","quantity":"garbage"}
		]}`))
	})

	counts, err := client.BatchRetrieveCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"V1": 12, "V2": 3}, counts)
}

func TestBatchAdjustInventory_SkipsEmptyChanges(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{}`))
	})

	err := client.BatchAdjustInventory(context.Background(), []InventoryAdjustment{
		{CatalogObjectID: "", Quantity: 2},
		{CatalogObjectID: "V1", Quantity: 0},
	})
	require.NoError(t, err)
	assert.False(t, called, "no request when every change filters out")
}

func TestBatchAdjustInventory_BuildsSaleAdjustments(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	})

	err := client.BatchAdjustInventory(context.Background(), []InventoryAdjustment{
		{CatalogObjectID: "V1", Quantity: 2},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, got["idempotency_key"])
	changes := got["changes"].([]any)
	require.Len(t, changes, 1)
	adj := changes[0].(map[string]any)["adjustment"].(map[string]any)
	assert.Equal(t, "IN_STOCK", adj["from_state"])
	assert.Equal(t, "SOLD", adj["to_state"])
	assert.Equal(t, "2", adj["quantity"])
	assert.Equal(t, "LOC1", adj["location_id"])
}

func TestCreatePaymentLink(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"payment_link":{"url":"https://square.link/abc"}}`))
	})

	url, err := client.CreatePaymentLink(context.Background(), PaymentLinkRequest{
		OrderID: 42,
		Amount:  decimal.RequireFromString("26.12"),
		Note:    "Auntie Jummy's order",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://square.link/abc", url)

	assert.Equal(t, "order-42", got["idempotency_key"])
	quickPay := got["quick_pay"].(map[string]any)
	assert.Equal(t, "Auntie Jummy's Order #42", quickPay["name"])
	price := quickPay["price_money"].(map[string]any)
	assert.Equal(t, float64(2612), price["amount"])
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.ListCatalog(context.Background(), "")
		require.Error(t, err)
	}
	srv.Close()

	_, err := client.ListCatalog(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
