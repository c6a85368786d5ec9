package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/notify"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/square"
)

type mockPromoStore struct {
	promos map[string]*domain.PromoCode
	err    error
}

func (m *mockPromoStore) PromoByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.promos {
		if strings.EqualFold(p.Code, code) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repository.ErrPromoNotFound
}

type mockDeliveryStore struct {
	zips            map[string]bool
	deliveryWindows []domain.Window
	pickupWindows   []domain.Window
	rates           map[string]decimal.Decimal
	err             error
}

func (m *mockDeliveryStore) ZoneContains(_ context.Context, zip string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.zips[zip], nil
}

func (m *mockDeliveryStore) DeliveryWindows(_ context.Context, weekday time.Weekday) ([]domain.Window, error) {
	if m.err != nil {
		return nil, m.err
	}
	return windowsFor(m.deliveryWindows, weekday), nil
}

func (m *mockDeliveryStore) PickupWindows(_ context.Context, weekday time.Weekday) ([]domain.Window, error) {
	if m.err != nil {
		return nil, m.err
	}
	return windowsFor(m.pickupWindows, weekday), nil
}

func (m *mockDeliveryStore) RateForZip(_ context.Context, zip string) (*domain.DeliveryRate, error) {
	if fee, ok := m.rates[zip]; ok {
		return &domain.DeliveryRate{PostalCode: zip, Fee: fee}, nil
	}
	return nil, repository.ErrRateNotFound
}

func windowsFor(all []domain.Window, weekday time.Weekday) []domain.Window {
	var out []domain.Window
	for _, w := range all {
		if w.Weekday == weekday {
			out = append(out, w)
		}
	}
	return out
}

type mockOrderStore struct {
	nextID         int64
	created        []*domain.Order
	createdPromoID int64
	createErr      error

	orders map[int64]*domain.Order

	markPaidCalls  int
	markPaidResult bool
	markPaidErr    error

	salesIncrements map[int64]int
}

func (m *mockOrderStore) CreateOrder(_ context.Context, order *domain.Order, promoID int64) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	m.created = append(m.created, order)
	m.createdPromoID = promoID
	return m.nextID, nil
}

func (m *mockOrderStore) OrderByID(_ context.Context, id int64) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderStore) MarkPaid(_ context.Context, id int64) (bool, error) {
	if m.markPaidErr != nil {
		return false, m.markPaidErr
	}
	if _, ok := m.orders[id]; !ok {
		return false, repository.ErrOrderNotFound
	}
	m.markPaidCalls++
	first := m.markPaidResult && m.markPaidCalls == 1
	return first, nil
}

func (m *mockOrderStore) IncrementSales(_ context.Context, productID int64, quantity int) error {
	if m.salesIncrements == nil {
		m.salesIncrements = make(map[int64]int)
	}
	m.salesIncrements[productID] += quantity
	return nil
}

func (m *mockOrderStore) RecentOrders(_ context.Context, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

type mockCatalogStore struct {
	products map[int64]*domain.Product
	tx       *mockCatalogTx
	txErr    error
}

func (m *mockCatalogStore) ProductsByIDs(_ context.Context, ids []int64) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalogStore) ActiveProducts(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range m.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalogStore) SyncTx(_ context.Context, fn func(tx repository.CatalogTx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m.tx)
}

// mockCatalogTx is an in-memory catalog the syncer merges into.
type mockCatalogTx struct {
	categories map[string]int64
	nextCatID  int64
	products   map[string]*domain.Product
	nextProdID int64
	updates    int
}

func newMockCatalogTx() *mockCatalogTx {
	return &mockCatalogTx{
		categories: make(map[string]int64),
		products:   make(map[string]*domain.Product),
	}
}

func (m *mockCatalogTx) EnsureCategory(_ context.Context, name, _ string) (int64, error) {
	if id, ok := m.categories[name]; ok {
		return id, nil
	}
	m.nextCatID++
	m.categories[name] = m.nextCatID
	return m.nextCatID, nil
}

func (m *mockCatalogTx) ProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	p, ok := m.products[slug]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockCatalogTx) CreateProduct(_ context.Context, p *domain.Product) error {
	m.nextProdID++
	p.ID = m.nextProdID
	clone := *p
	m.products[p.Slug] = &clone
	return nil
}

func (m *mockCatalogTx) UpdateProduct(_ context.Context, p *domain.Product) error {
	clone := *p
	m.products[p.Slug] = &clone
	m.updates++
	return nil
}

type mockSquareClient struct {
	pages    []*square.CatalogPage
	pageIdx  int
	listErr  error
	counts   map[string]int
	countErr error

	adjustments [][]square.InventoryAdjustment
	adjustErr   error

	paymentLinks []square.PaymentLinkRequest
	linkURL      string
	linkErr      error
}

func (m *mockSquareClient) ListCatalog(_ context.Context, _ string) (*square.CatalogPage, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	page := m.pages[m.pageIdx]
	if m.pageIdx < len(m.pages)-1 {
		m.pageIdx++
	}
	return page, nil
}

func (m *mockSquareClient) BatchRetrieveCounts(_ context.Context) (map[string]int, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	return m.counts, nil
}

func (m *mockSquareClient) BatchAdjustInventory(_ context.Context, adjustments []square.InventoryAdjustment) error {
	if m.adjustErr != nil {
		return m.adjustErr
	}
	m.adjustments = append(m.adjustments, adjustments)
	return nil
}

func (m *mockSquareClient) CreatePaymentLink(_ context.Context, req square.PaymentLinkRequest) (string, error) {
	if m.linkErr != nil {
		return "", m.linkErr
	}
	m.paymentLinks = append(m.paymentLinks, req)
	return m.linkURL, nil
}

// mockEvents records dispatched notification events.
type mockEvents struct {
	events []notify.Event
}

func (m *mockEvents) Dispatch(ev notify.Event) {
	m.events = append(m.events, ev)
}

// fixedFee quotes the same fee for every destination.
type fixedFee struct {
	fee decimal.Decimal
}

func (f fixedFee) Fee(context.Context, string) decimal.Decimal { return f.fee }
