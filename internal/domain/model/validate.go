package model

import "fmt"

// Validate checks the aggregate-wide invariants. The grouporder service runs
// it after every mutation and refuses to commit a state that fails.
func (o *GroupOrder) Validate() error {
	if !o.Status.valid() {
		return fmt.Errorf("invalid status %q", o.Status)
	}
	if !o.SelectionPhase.valid() {
		return fmt.Errorf("invalid selection phase %q", o.SelectionPhase)
	}

	var contributed int64
	for _, c := range o.BudgetContributions {
		contributed += c.Amount
	}
	if o.TotalBudget != o.InitialBudget+contributed {
		return fmt.Errorf("total_budget %d != initial_budget %d + contributions %d",
			o.TotalBudget, o.InitialBudget, contributed)
	}

	seen := make(map[string]struct{}, len(o.Participants))
	var itemTotal int64
	for i := range o.Participants {
		p := &o.Participants[i]
		if _, dup := seen[p.UserID]; dup {
			return fmt.Errorf("duplicate participant %s", p.UserID)
		}
		seen[p.UserID] = struct{}{}

		var sum int64
		for _, it := range p.OrderItems {
			sum += it.Price * int64(it.Quantity)
		}
		if p.TotalContribution != sum {
			return fmt.Errorf("participant %s total_contribution %d != item sum %d",
				p.UserID, p.TotalContribution, sum)
		}
		itemTotal += p.TotalContribution

		if len(p.OrderItems) > 0 && o.Status == StatusActive && o.SelectionPhase == PhaseBudgeting {
			return fmt.Errorf("participant %s holds items during budgeting", p.UserID)
		}
	}
	if o.TotalAmount != itemTotal {
		return fmt.Errorf("total_amount %d != participant sum %d", o.TotalAmount, itemTotal)
	}

	if o.FinalAmount < 0 {
		return fmt.Errorf("final_amount %d is negative", o.FinalAmount)
	}
	if o.Status != StatusActive && o.FinalAmount != o.TotalAmount-o.DiscountAmount {
		return fmt.Errorf("final_amount %d != total_amount %d - discount %d",
			o.FinalAmount, o.TotalAmount, o.DiscountAmount)
	}

	// main_order_id is set iff the order reached confirmed. A cancellation
	// after confirmation keeps it for the refund path.
	confirmed := statusRank[o.Status] >= statusRank[StatusConfirmed] && o.Status != StatusCancelled
	if confirmed && o.MainOrderID == "" {
		return fmt.Errorf("status %s without main_order_id", o.Status)
	}
	if (o.Status == StatusActive || o.Status == StatusClosed) && o.MainOrderID != "" {
		return fmt.Errorf("main_order_id set while status is %s", o.Status)
	}

	if o.Revision < 1 {
		return fmt.Errorf("revision %d", o.Revision)
	}
	return nil
}
