// Package offers evaluates discount rules against a group order's total and
// participant count. Evaluation is deterministic and side-effect free so that
// closing an order stays idempotent.
package offers

import (
	"github.com/cribnosh/group-ordering/internal/domain/money"
)

// Rule mirrors the product's special-offer records.
type Rule struct {
	OfferID         string             `json:"offer_id" yaml:"offer_id"`
	Title           string             `json:"title" yaml:"title"`
	DiscountType    money.DiscountType `json:"discount_type" yaml:"discount_type"`
	DiscountValue   int64              `json:"discount_value" yaml:"discount_value"`
	MaxDiscount     int64              `json:"max_discount" yaml:"max_discount"`
	MinOrderAmount  int64              `json:"min_order_amount" yaml:"min_order_amount"`
	MinParticipants int                `json:"min_participants" yaml:"min_participants"`
}

// Evaluation is the winning rule's discount terms.
type Evaluation struct {
	OfferID        string
	DiscountType   money.DiscountType
	DiscountAmount int64
	FinalAmount    int64
}

// Evaluator picks the discount to apply at close time.
type Evaluator interface {
	Evaluate(totalAmount int64, participantCount int) (Evaluation, bool)
}

// RuleEvaluator applies a fixed rule set: the eligible rule yielding the
// largest discount wins, earlier rules break ties.
type RuleEvaluator struct {
	rules []Rule
}

func NewRuleEvaluator(rules ...Rule) *RuleEvaluator {
	return &RuleEvaluator{rules: rules}
}

// Default returns the product's standing group-order offer: 25% off for two
// or more participants.
func Default() *RuleEvaluator {
	return NewRuleEvaluator(Rule{
		OfferID:         "group-order-default",
		Title:           "Group order discount",
		DiscountType:    money.Percentage,
		DiscountValue:   25,
		MinParticipants: 2,
	})
}

func (e *RuleEvaluator) Evaluate(totalAmount int64, participantCount int) (Evaluation, bool) {
	var (
		best  Evaluation
		found bool
	)
	for _, r := range e.rules {
		if participantCount < r.MinParticipants {
			continue
		}
		if totalAmount < r.MinOrderAmount {
			continue
		}
		discount, final, err := money.ApplyDiscount(totalAmount, r.DiscountType, r.DiscountValue, r.MaxDiscount)
		if err != nil {
			continue
		}
		if !found || discount > best.DiscountAmount {
			best = Evaluation{
				OfferID:        r.OfferID,
				DiscountType:   r.DiscountType,
				DiscountAmount: discount,
				FinalAmount:    final,
			}
			found = true
		}
	}
	return best, found
}
