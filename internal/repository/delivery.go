package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
)

func (s *Store) ZoneContains(ctx context.Context, zip string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM delivery_zones WHERE postal_code = $1)`,
		zip).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query delivery zone: %w", err)
	}
	return exists, nil
}

func (s *Store) DeliveryWindows(ctx context.Context, weekday time.Weekday) ([]domain.Window, error) {
	return s.windows(ctx, "delivery_windows", weekday)
}

func (s *Store) PickupWindows(ctx context.Context, weekday time.Weekday) ([]domain.Window, error) {
	return s.windows(ctx, "pickup_windows", weekday)
}

func (s *Store) windows(ctx context.Context, table string, weekday time.Weekday) ([]domain.Window, error) {
	query := fmt.Sprintf(
		`SELECT id, weekday, start_minutes, end_minutes FROM %s
		 WHERE weekday = $1 ORDER BY start_minutes`, table)

	rows, err := s.db.QueryContext(ctx, query, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var windows []domain.Window
	for rows.Next() {
		var w domain.Window
		var wd int
		if err := rows.Scan(&w.ID, &wd, &w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		w.Weekday = time.Weekday(wd)
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return windows, nil
}

func (s *Store) RateForZip(ctx context.Context, zip string) (*domain.DeliveryRate, error) {
	var rate domain.DeliveryRate
	err := s.db.QueryRowContext(ctx,
		`SELECT postal_code, fee FROM delivery_rates WHERE postal_code = $1`,
		zip).Scan(&rate.PostalCode, &rate.Fee)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query delivery rate: %w", err)
	}
	return &rate, nil
}
