package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/repository"
	"github.com/femmynice-collab/auntie-jummys-shop/internal/square"
)

const (
	defaultCategoryName = "Candy & Snacks"
	fallbackItemName    = "Square Item"
	slugMaxLen          = 200
)

// SyncResult summarizes one catalog pull.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// CatalogSyncer pulls the external catalog and inventory counts and merges
// them into the local product table in a single transaction.
type CatalogSyncer struct {
	catalog      repository.CatalogStore
	client       square.Client
	defaultStock int
	logger       *slog.Logger
}

func NewCatalogSyncer(catalog repository.CatalogStore, client square.Client, defaultStock int, logger *slog.Logger) *CatalogSyncer {
	return &CatalogSyncer{
		catalog:      catalog,
		client:       client,
		defaultStock: defaultStock,
		logger:       logger,
	}
}

// Sync fetches the full catalog and the inventory counts (concurrently),
// then merges. Network fetches happen before the transaction opens so a slow
// upstream never holds database locks.
func (s *CatalogSyncer) Sync(ctx context.Context) (*SyncResult, error) {
	var (
		objects []square.CatalogObject
		counts  map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		objects, err = s.fetchCatalog(gctx)
		return err
	})
	g.Go(func() error {
		// Counts are an overlay on top of the catalog, so a failure here
		// degrades to syncing without stock rather than aborting.
		c, err := s.client.BatchRetrieveCounts(gctx)
		if err != nil {
			s.logger.Warn("inventory counts unavailable, syncing without stock", "error", err)
			return nil
		}
		counts = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	entries := flattenCatalog(objects, counts)

	result := &SyncResult{}
	err := s.catalog.SyncTx(ctx, func(tx repository.CatalogTx) error {
		categoryIDs := make(map[string]int64)
		for _, entry := range entries {
			created, updated, err := s.merge(ctx, tx, entry, categoryIDs)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			}
			if updated {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge catalog: %w", err)
	}

	s.logger.Info("catalog sync complete",
		"entries", len(entries), "created", result.Created, "updated", result.Updated)
	return result, nil
}

func (s *CatalogSyncer) fetchCatalog(ctx context.Context) ([]square.CatalogObject, error) {
	var objects []square.CatalogObject
	cursor := ""
	for {
		page, err := s.client.ListCatalog(ctx, cursor)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Objects...)
		if page.Cursor == "" {
			return objects, nil
		}
		cursor = page.Cursor
	}
}

// flattenCatalog turns the raw object listing into one entry per variation.
// Variations whose parent item is missing still sell, under a placeholder
// item name and the default category.
func flattenCatalog(objects []square.CatalogObject, counts map[string]int) []domain.CatalogEntry {
	categories := make(map[string]string)
	items := make(map[string]*square.ItemData)
	for i := range objects {
		obj := &objects[i]
		switch {
		case obj.Type == "CATEGORY" && obj.CategoryData != nil:
			categories[obj.ID] = obj.CategoryData.Name
		case obj.Type == "ITEM" && obj.ItemData != nil:
			items[obj.ID] = obj.ItemData
		}
	}

	var entries []domain.CatalogEntry
	for _, obj := range objects {
		if obj.Type != "ITEM_VARIATION" || obj.ItemVariationData == nil {
			continue
		}
		v := obj.ItemVariationData

		itemName := fallbackItemName
		categoryRef := ""
		if item := items[v.ItemID]; item != nil {
			if strings.TrimSpace(item.Name) != "" {
				itemName = item.Name
			}
			categoryRef = item.CategoryID
		}

		entry := domain.CatalogEntry{
			Name:         joinItemName(itemName, v.Name),
			CategoryName: categoryName(categories, categoryRef),
			VariationID:  obj.ID,
		}
		entry.Slug = truncate(domain.Slugify(entry.Name), slugMaxLen)
		if v.PriceMoney != nil {
			entry.Price = v.PriceMoney.Decimal()
		}
		if count, ok := counts[obj.ID]; ok {
			c := count
			entry.StockCount = &c
		}
		entries = append(entries, entry)
	}
	return entries
}

// categoryName resolves a category reference against the CATEGORY objects in
// the listing. A reference with no matching object still names a real group,
// so the raw id stands in rather than collapsing into the default.
func categoryName(categories map[string]string, ref string) string {
	if name := categories[ref]; name != "" {
		return name
	}
	if ref != "" {
		return ref
	}
	return defaultCategoryName
}

func (s *CatalogSyncer) merge(ctx context.Context, tx repository.CatalogTx, entry domain.CatalogEntry, categoryIDs map[string]int64) (created, updated bool, err error) {
	categoryID, ok := categoryIDs[entry.CategoryName]
	if !ok {
		categoryID, err = tx.EnsureCategory(ctx, entry.CategoryName, domain.Slugify(entry.CategoryName))
		if err != nil {
			return false, false, fmt.Errorf("ensure category %q: %w", entry.CategoryName, err)
		}
		categoryIDs[entry.CategoryName] = categoryID
	}

	existing, err := tx.ProductBySlug(ctx, entry.Slug)
	if errors.Is(err, repository.ErrProductNotFound) {
		p := &domain.Product{
			CategoryID:        categoryID,
			Name:              entry.Name,
			Slug:              entry.Slug,
			Price:             entry.Price,
			SquareVariationID: entry.VariationID,
			Stock:             s.defaultStock,
			Active:            true,
		}
		if entry.StockCount != nil {
			p.ApplyStockCount(*entry.StockCount)
		}
		if err := tx.CreateProduct(ctx, p); err != nil {
			return false, false, fmt.Errorf("create product %q: %w", entry.Slug, err)
		}
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("load product %q: %w", entry.Slug, err)
	}

	changed := existing.ApplySync(entry, categoryID)
	stockChanged := false
	if entry.StockCount != nil {
		stockChanged = existing.ApplyStockCount(*entry.StockCount)
	}
	if changed || stockChanged {
		if err := tx.UpdateProduct(ctx, existing); err != nil {
			return false, false, fmt.Errorf("update product %q: %w", entry.Slug, err)
		}
	}
	// A stock-count overlay alone is not reported as an update.
	return false, changed, nil
}

// joinItemName combines an item name with its variation name, skipping the
// platform's placeholder "Regular" variation.
func joinItemName(item, variation string) string {
	variation = strings.TrimSpace(variation)
	if variation == "" || strings.EqualFold(variation, "Regular") {
		return strings.TrimSpace(item)
	}
	return strings.TrimSpace(item) + " " + variation
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
