package offers

import (
	"testing"

	"github.com/cribnosh/group-ordering/internal/domain/money"
)

func TestDefaultEvaluator(t *testing.T) {
	e := Default()

	tests := []struct {
		name         string
		total        int64
		participants int
		wantDiscount int64
		wantFound    bool
	}{
		{name: "two participants qualify", total: 2100, participants: 2, wantDiscount: 525, wantFound: true},
		{name: "solo order does not qualify", total: 2100, participants: 1, wantFound: false},
		{name: "zero total qualifies with zero discount", total: 0, participants: 3, wantDiscount: 0, wantFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, found := e.Evaluate(tt.total, tt.participants)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && ev.DiscountAmount != tt.wantDiscount {
				t.Errorf("discount = %d, want %d", ev.DiscountAmount, tt.wantDiscount)
			}
		})
	}
}

func TestRuleEvaluatorPicksLargestDiscount(t *testing.T) {
	e := NewRuleEvaluator(
		Rule{OfferID: "ten-off", DiscountType: money.Percentage, DiscountValue: 10, MinParticipants: 2},
		Rule{OfferID: "flat-500", DiscountType: money.FixedAmount, DiscountValue: 500, MinOrderAmount: 3000},
	)

	ev, found := e.Evaluate(2100, 2)
	if !found || ev.OfferID != "ten-off" || ev.DiscountAmount != 210 {
		t.Errorf("got %+v found=%v, want ten-off 210", ev, found)
	}

	ev, found = e.Evaluate(4000, 2)
	if !found || ev.OfferID != "flat-500" || ev.DiscountAmount != 500 {
		t.Errorf("got %+v found=%v, want flat-500 500", ev, found)
	}
}

func TestRuleEvaluatorDeterministic(t *testing.T) {
	e := NewRuleEvaluator(
		Rule{OfferID: "a", DiscountType: money.Percentage, DiscountValue: 10},
		Rule{OfferID: "b", DiscountType: money.Percentage, DiscountValue: 10},
	)
	for i := 0; i < 5; i++ {
		ev, found := e.Evaluate(1000, 1)
		if !found || ev.OfferID != "a" {
			t.Fatalf("tie must break to the earlier rule, got %+v found=%v", ev, found)
		}
	}
}

func TestMinOrderAmountGate(t *testing.T) {
	e := NewRuleEvaluator(Rule{OfferID: "big-spender", DiscountType: money.Percentage, DiscountValue: 15, MinOrderAmount: 5000})
	if _, found := e.Evaluate(4999, 4); found {
		t.Error("rule must not apply below min_order_amount")
	}
	if _, found := e.Evaluate(5000, 4); !found {
		t.Error("rule must apply at min_order_amount")
	}
}
