package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
	"github.com/lib/pq"
)

const productColumns = `id, category_id, name, slug, description, price, sku, upc,
	allergens, stock, active, featured, sales_count, square_variation_id,
	created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.SKU,
		&p.UPC,
		&p.Allergens,
		&p.Stock,
		&p.Active,
		&p.Featured,
		&p.SalesCount,
		&p.SquareVariationID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (s *Store) ActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

// SyncTx wraps a full catalog merge in one transaction so a mid-sync failure
// never leaves a partial catalog behind.
func (s *Store) SyncTx(ctx context.Context, fn func(tx CatalogTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&catalogTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	return nil
}

type catalogTx struct {
	tx *sql.Tx
}

func (c *catalogTx) EnsureCategory(ctx context.Context, name, slug string) (int64, error) {
	// upsert trick: the no-op DO UPDATE makes RETURNING yield the id on
	// conflict as well
	var id int64
	err := c.tx.QueryRowContext(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name, slug).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure category %q: %w", name, err)
	}
	return id, nil
}

func (c *catalogTx) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	p, err := scanProduct(c.tx.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by slug: %w", err)
	}
	return p, nil
}

func (c *catalogTx) CreateProduct(ctx context.Context, p *domain.Product) error {
	err := c.tx.QueryRowContext(ctx,
		`INSERT INTO products
		   (category_id, name, slug, description, price, sku, upc, allergens,
		    stock, active, featured, square_variation_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		p.CategoryID, p.Name, p.Slug, p.Description, p.Price, p.SKU, p.UPC,
		p.Allergens, p.Stock, p.Active, p.Featured, p.SquareVariationID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product %q: %w", p.Slug, err)
	}
	return nil
}

func (c *catalogTx) UpdateProduct(ctx context.Context, p *domain.Product) error {
	_, err := c.tx.ExecContext(ctx,
		`UPDATE products
		 SET category_id = $1, name = $2, price = $3, stock = $4,
		     square_variation_id = $5, updated_at = NOW()
		 WHERE id = $6`,
		p.CategoryID, p.Name, p.Price, p.Stock, p.SquareVariationID, p.ID)
	if err != nil {
		return fmt.Errorf("update product %q: %w", p.Slug, err)
	}
	return nil
}
