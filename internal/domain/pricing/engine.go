// Package pricing computes the final price of a product after applying
// promotional discounts.
package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/promo-pricing/internal/domain/product"
	"github.com/xenking/promo-pricing/internal/domain/promotion"
)

// Config holds the allowed product price band, inclusive on both ends.
type Config struct {
	MinPrice int64
	MaxPrice int64
}

// DefaultConfig returns the 10,000 - 10,000,000 band.
func DefaultConfig() Config {
	return Config{MinPrice: 10_000, MaxPrice: 10_000_000}
}

// Validate checks that the band is well formed.
func (c Config) Validate() error {
	if c.MinPrice < 0 {
		return errors.Errorf("minimum price %d is negative", c.MinPrice)
	}
	if c.MaxPrice < c.MinPrice {
		return errors.Errorf("maximum price %d is below minimum price %d", c.MaxPrice, c.MinPrice)
	}
	return nil
}

// Request identifies the product to price and the promotions the caller wants
// applied, in application order. A nil PromotionIDs is the same as empty.
type Request struct {
	ProductID    int64
	PromotionIDs []int64
}

// Result is the price breakdown. DiscountPrice is the sum of promotion
// discounts and does not include the truncation applied to FinalPrice.
type Result struct {
	Name          string
	OriginPrice   int64
	DiscountPrice int64
	FinalPrice    int64
}

// Pricer computes prices.
type Pricer interface {
	ComputePrice(ctx context.Context, req Request) (*Result, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the clock used for promotion window checks.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

var _ Pricer = (*Engine)(nil)

// Engine implements Pricer on top of product and promotion repositories.
// It keeps no per-request state and is safe for concurrent use.
type Engine struct {
	cfg        Config
	products   product.Repository
	promotions promotion.Repository
	now        func() time.Time
}

// NewEngine creates an Engine with the given price band and lookups.
func NewEngine(
	cfg Config,
	products product.Repository,
	promotions promotion.Repository,
	opts ...Option,
) *Engine {
	e := &Engine{
		cfg:        cfg,
		products:   products,
		promotions: promotions,
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ComputePrice resolves the product and requested promotions and applies the
// pricing rules in order, stopping at the first violation. Rule violations
// are returned as *Error; lookup failures are wrapped and returned as is.
func (e *Engine) ComputePrice(ctx context.Context, req Request) (*Result, error) {
	lg := zctx.From(ctx)

	p, err := e.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", req.ProductID)
	}

	if err := e.checkPriceBand(p.Price); err != nil {
		return nil, err
	}

	finalPrice := p.Price
	var totalDiscount int64

	if len(req.PromotionIDs) > 0 {
		promos, err := e.applicablePromotions(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(promos) == 0 {
			return nil, ErrPromotionNotApplicable
		}

		now := e.now()
		for _, promo := range promos {
			if err := checkWindow(promo, now); err != nil {
				return nil, err
			}

			discount, err := discountFor(promo, p.Price)
			if err != nil {
				return nil, errors.Wrapf(err, "promotion %d", promo.ID)
			}
			finalPrice -= discount
			totalDiscount += discount

			lg.Debug("Promotion applied",
				zap.Int64("product_id", p.ID),
				zap.Int64("promotion_id", promo.ID),
				zap.Int64("discount", discount),
				zap.Int64("running_price", finalPrice),
			)

			if finalPrice < 0 {
				return nil, ErrDiscountExceedsPrice
			}
		}
	}

	if finalPrice < p.Price {
		finalPrice = truncatePrice(finalPrice)
	}

	return &Result{
		Name:          p.Name,
		OriginPrice:   p.Price,
		DiscountPrice: totalDiscount,
		FinalPrice:    finalPrice,
	}, nil
}

func (e *Engine) checkPriceBand(price int64) error {
	if price < e.cfg.MinPrice {
		return ErrPriceBelowMinimum.withMessage("product price must be at least %d", e.cfg.MinPrice)
	}
	if price > e.cfg.MaxPrice {
		return ErrPriceAboveMaximum.withMessage("product price must be at most %d", e.cfg.MaxPrice)
	}
	return nil
}

// applicablePromotions keeps the requested promotions that apply to the
// product, preserving request order.
func (e *Engine) applicablePromotions(ctx context.Context, req Request) ([]*promotion.Promotion, error) {
	var out []*promotion.Promotion
	for _, id := range req.PromotionIDs {
		ok, err := e.promotions.IsApplicable(ctx, req.ProductID, id)
		if err != nil {
			return nil, errors.Wrapf(err, "check promotion %d", id)
		}
		if !ok {
			continue
		}

		promo, err := e.promotions.GetByID(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "get promotion %d", id)
		}
		out = append(out, promo)
	}
	return out, nil
}
