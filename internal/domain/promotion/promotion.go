package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// DiscountType enumerates the supported promotion discount strategies.
type DiscountType string

const (
	// DiscountFixedAmount subtracts a fixed currency amount.
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
	// DiscountPercent subtracts a percentage of the product's original price.
	DiscountPercent DiscountType = "PERCENT"
)

// Kind is the distribution channel of a promotion.
type Kind string

const (
	KindCoupon Kind = "COUPON"
	KindCode   Kind = "CODE"
)

// ErrNotFound is returned when a requested promotion does not exist.
var ErrNotFound = errors.New("promotion not found")

// ParseDiscountType converts a stored discount type into a DiscountType.
// "WON" is accepted as a legacy alias of FIXED_AMOUNT.
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(s) {
	case DiscountFixedAmount, "WON":
		return DiscountFixedAmount, nil
	case DiscountPercent:
		return DiscountPercent, nil
	default:
		return "", errors.Errorf("unsupported discount type: %q", s)
	}
}

// ParseKind converts a stored promotion type into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCoupon, KindCode:
		return k, nil
	default:
		return "", errors.Errorf("unsupported promotion type: %q", s)
	}
}

// Promotion defines a discount rule and the window in which it may be used.
type Promotion struct {
	ID            int64
	Kind          Kind
	Name          string
	DiscountType  DiscountType
	DiscountValue int64
	StartsAt      time.Time
	EndsAt        time.Time
}

// Repository provides promotion lookups and product eligibility checks.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Promotion, error)
	IsApplicable(ctx context.Context, productID, promotionID int64) (bool, error)
}
