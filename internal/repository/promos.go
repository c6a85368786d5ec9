package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/domain"
)

// PromoByCode resolves a promo code case-insensitively.
func (s *Store) PromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `SELECT id, code, discount_type, value, active, starts, ends,
	                 usage_limit, usage_count
	          FROM promo_codes WHERE UPPER(code) = UPPER($1)`

	var p domain.PromoCode
	var kind string
	var starts, ends sql.NullTime
	var limit sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&p.ID,
		&p.Code,
		&kind,
		&p.Value,
		&p.Active,
		&starts,
		&ends,
		&limit,
		&p.UsageCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query promo code: %w", err)
	}

	p.Kind = domain.DiscountKind(kind)
	if starts.Valid {
		t := starts.Time
		p.Starts = &t
	}
	if ends.Valid {
		t := ends.Time
		p.Ends = &t
	}
	if limit.Valid {
		n := int(limit.Int64)
		p.UsageLimit = &n
	}
	return &p, nil
}
