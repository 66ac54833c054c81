// Package money provides exact integer minor-unit arithmetic for order
// pricing. All amounts are int64 minor units (pence); floating point is
// never used.
package money

import (
	"errors"
	"fmt"
)

type Currency string

const (
	GBP Currency = "GBP"
	EUR Currency = "EUR"
	USD Currency = "USD"
)

type DiscountType string

const (
	Percentage   DiscountType = "percentage"
	FixedAmount  DiscountType = "fixed_amount"
	FreeDelivery DiscountType = "free_delivery"
)

var ErrUnknownDiscountType = errors.New("unknown discount type")

// ApplyDiscount computes the discount and final amount for a total.
// Percentage values are whole percent; the result is rounded down to the
// minor unit. maxDiscount caps a percentage discount when positive.
// free_delivery yields no discount against the item total, the delivery fee
// is waived downstream. The final amount is never negative and the result is
// deterministic for identical inputs.
func ApplyDiscount(total int64, typ DiscountType, value, maxDiscount int64) (discount, final int64, err error) {
	if total < 0 {
		return 0, 0, fmt.Errorf("negative total %d", total)
	}

	switch typ {
	case Percentage:
		discount = total * value / 100
		if maxDiscount > 0 && discount > maxDiscount {
			discount = maxDiscount
		}
	case FixedAmount:
		discount = value
	case FreeDelivery:
		discount = 0
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownDiscountType, typ)
	}

	if discount < 0 {
		discount = 0
	}
	if discount > total {
		discount = total
	}
	return discount, total - discount, nil
}

// LineTotal returns price*quantity for a single line.
func LineTotal(price int64, quantity int) int64 {
	return price * int64(quantity)
}
