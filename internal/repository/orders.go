package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
)

// CreateOrder persists the whole checkout unit in one transaction: the order
// row, one row per line, a clamped stock decrement per line and the
// conditional promo usage increment. A promo that hits its limit between
// validation and commit rolls the whole unit back with ErrPromoExhausted.
func (s *Store) CreateOrder(ctx context.Context, order *domain.Order, promoID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders
	            (customer_name, email, address, city, state, zip_code, paid,
	             promo_code, discount_amount, delivery_fee, fulfillment_method,
	             pickup_note, pickup_at)
	          VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $9, $10, $11, $12)
	          RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		order.CustomerName,
		order.Email,
		order.Address,
		order.City,
		order.State,
		order.ZipCode,
		order.PromoCode,
		order.DiscountAmount,
		order.DeliveryFee,
		string(order.Fulfillment),
		order.PickupNote,
		order.PickupAt,
	).Scan(&order.ID, &order.Created)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID

		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			line.OrderID, line.ProductID, line.Quantity, line.UnitPrice,
		).Scan(&line.ID)
		if err != nil {
			return 0, fmt.Errorf("insert order line: %w", err)
		}

		// stock never goes below zero, even when the requested quantity
		// exceeds what is on hand
		_, err = tx.ExecContext(ctx,
			`UPDATE products
			 SET stock = GREATEST(stock - $1, 0), updated_at = NOW()
			 WHERE id = $2`,
			line.Quantity, line.ProductID)
		if err != nil {
			return 0, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if promoID != 0 {
		res, e2 := tx.ExecContext(ctx,
			`UPDATE promo_codes
			 SET usage_count = usage_count + 1
			 WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`,
			promoID)
		if e2 != nil {
			return 0, fmt.Errorf("increment promo usage: %w", e2)
		}
		rows, e2 := res.RowsAffected()
		if e2 != nil {
			return 0, fmt.Errorf("increment promo usage: %w", e2)
		}
		if rows == 0 {
			return 0, ErrPromoExhausted
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit checkout transaction: %w", err)
	}
	return order.ID, nil
}

func (s *Store) OrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, customer_name, email, address, city, state, zip_code,
	                 created_at, paid, promo_code, discount_amount, delivery_fee,
	                 fulfillment_method, pickup_note, pickup_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	var fulfillment string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.CustomerName,
		&order.Email,
		&order.Address,
		&order.City,
		&order.State,
		&order.ZipCode,
		&order.Created,
		&order.Paid,
		&order.PromoCode,
		&order.DiscountAmount,
		&order.DeliveryFee,
		&fulfillment,
		&order.PickupNote,
		&order.PickupAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	order.Fulfillment = domain.FulfillmentMethod(fulfillment)

	lines, err := s.orderLines(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (s *Store) orderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price,
	                 p.square_variation_id
	          FROM order_items i
	          JOIN products p ON p.id = i.product_id
	          WHERE i.order_id = $1
	          ORDER BY i.id`

	rows, err := s.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName,
			&l.Quantity, &l.UnitPrice, &l.SquareVariationID); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

// MarkPaid flips paid exactly once. The WHERE NOT paid guard makes webhook
// re-delivery a no-op for downstream side effects.
func (s *Store) MarkPaid(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET paid = TRUE WHERE id = $1 AND NOT paid`, id)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if rows > 0 {
		return true, nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return false, ErrOrderNotFound
	}
	return false, nil
}

func (s *Store) IncrementSales(ctx context.Context, productID int64, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE products SET sales_count = sales_count + $1, updated_at = NOW() WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("increment sales count: %w", err)
	}
	return nil
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	query := `SELECT id, customer_name, email, address, city, state, zip_code,
	                 created_at, paid, promo_code, discount_amount, delivery_fee,
	                 fulfillment_method, pickup_note, pickup_at
	          FROM orders ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		var fulfillment string
		if err := rows.Scan(
			&order.ID,
			&order.CustomerName,
			&order.Email,
			&order.Address,
			&order.City,
			&order.State,
			&order.ZipCode,
			&order.Created,
			&order.Paid,
			&order.PromoCode,
			&order.DiscountAmount,
			&order.DeliveryFee,
			&fulfillment,
			&order.PickupNote,
			&order.PickupAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Fulfillment = domain.FulfillmentMethod(fulfillment)
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		lines, err := s.orderLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
	}
	return orders, nil
}
