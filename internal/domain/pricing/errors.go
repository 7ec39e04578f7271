package pricing

import "fmt"

// Error is a pricing rule violation. Code is stable and safe to expose to
// clients; two errors are equal under errors.Is when their codes match.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is a pricing error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) withMessage(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Rule violations returned by Engine.ComputePrice.
var (
	ErrPriceBelowMinimum      = &Error{Code: 40001, Message: "product price is below the minimum"}
	ErrPriceAboveMaximum      = &Error{Code: 40002, Message: "product price is above the maximum"}
	ErrPromotionNotYetStarted = &Error{Code: 40003, Message: "promotion period has not started"}
	ErrPromotionExpired       = &Error{Code: 40004, Message: "promotion period has ended"}
	ErrPromotionNotApplicable = &Error{Code: 40005, Message: "promotion is not applicable to this product"}
	ErrDiscountExceedsPrice   = &Error{Code: 40006, Message: "discount amount cannot exceed the product price"}
	ErrProductNotFound        = &Error{Code: 40007, Message: "product does not exist"}
)
