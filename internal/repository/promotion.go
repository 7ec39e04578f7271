package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-pricing/internal/domain/promotion"
)

const (
	getPromotionByIDSQL = `SELECT id, promotion_type, name, discount_type, discount_value,
		use_started_at, use_ended_at
		FROM promotion WHERE id = $1`

	isPromotionApplicableSQL = `SELECT EXISTS (
		SELECT 1 FROM promotion_products WHERE product_id = $1 AND promotion_id = $2)`

	upsertPromotionSQL = `INSERT INTO promotion (id, promotion_type, name, discount_type, discount_value,
		use_started_at, use_ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			promotion_type = EXCLUDED.promotion_type,
			name = EXCLUDED.name,
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			use_started_at = EXCLUDED.use_started_at,
			use_ended_at = EXCLUDED.use_ended_at`

	linkPromotionSQL = `INSERT INTO promotion_products (promotion_id, product_id) VALUES ($1, $2)
		ON CONFLICT (promotion_id, product_id) DO NOTHING`
)

var _ promotion.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promotion.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// GetByID returns a single promotion, or promotion.ErrNotFound.
func (r *PromotionRepository) GetByID(ctx context.Context, id int64) (*promotion.Promotion, error) {
	rows, err := r.pool.Query(ctx, getPromotionByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting promotion %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPromotion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promotion.ErrNotFound
		}
		return nil, fmt.Errorf("getting promotion %d: %w", id, err)
	}
	return &p, nil
}

// IsApplicable reports whether the promotion is linked to the product.
func (r *PromotionRepository) IsApplicable(ctx context.Context, productID, promotionID int64) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, isPromotionApplicableSQL, productID, promotionID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking promotion %d for product %d: %w", promotionID, productID, err)
	}
	return ok, nil
}

// Upsert inserts or replaces a promotion and links it to the given products.
func (r *PromotionRepository) Upsert(ctx context.Context, p promotion.Promotion, productIDs []int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsertPromotionSQL,
			p.ID, string(p.Kind), p.Name, string(p.DiscountType), decimal.NewFromInt(p.DiscountValue),
			p.StartsAt, p.EndsAt,
		)
		if err != nil {
			return fmt.Errorf("upserting promotion %d: %w", p.ID, err)
		}

		for _, productID := range productIDs {
			if _, err := tx.Exec(ctx, linkPromotionSQL, p.ID, productID); err != nil {
				return fmt.Errorf("linking promotion %d to product %d: %w", p.ID, productID, err)
			}
		}
		return nil
	})
}

func scanPromotion(row pgx.CollectableRow) (promotion.Promotion, error) {
	var (
		p             promotion.Promotion
		kind          string
		discountType  string
		discountValue decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &kind, &p.Name, &discountType, &discountValue,
		&p.StartsAt, &p.EndsAt,
	)
	if err != nil {
		return p, err
	}
	if p.Kind, err = promotion.ParseKind(kind); err != nil {
		return p, err
	}
	if p.DiscountType, err = promotion.ParseDiscountType(discountType); err != nil {
		return p, err
	}
	p.DiscountValue, err = wholeAmount("promotion.discount_value", discountValue)
	return p, err
}
