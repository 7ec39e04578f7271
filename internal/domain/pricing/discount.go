package pricing

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-pricing/internal/domain/promotion"
)

// truncationPlaces rounds discounted prices down to a multiple of 10,000.
const truncationPlaces = -4

var hundred = decimal.NewFromInt(100)

// discountFor returns the discount a promotion grants on originPrice.
// Percentages are always taken from the original price, never from a
// previously discounted one.
func discountFor(p *promotion.Promotion, originPrice int64) (int64, error) {
	switch p.DiscountType {
	case promotion.DiscountFixedAmount:
		return p.DiscountValue, nil
	case promotion.DiscountPercent:
		amount := decimal.NewFromInt(originPrice).
			Mul(decimal.NewFromInt(p.DiscountValue)).
			Div(hundred)
		return amount.Truncate(0).IntPart(), nil
	default:
		return 0, errors.Errorf("unsupported discount type: %q", p.DiscountType)
	}
}

// checkWindow validates that now lies within [StartsAt, EndsAt].
func checkWindow(p *promotion.Promotion, now time.Time) error {
	if now.Before(p.StartsAt) {
		return ErrPromotionNotYetStarted
	}
	if now.After(p.EndsAt) {
		return ErrPromotionExpired
	}
	return nil
}

// truncatePrice drops everything below the 10,000 unit.
func truncatePrice(price int64) int64 {
	return decimal.NewFromInt(price).RoundDown(truncationPlaces).IntPart()
}
