package model

import (
	"fmt"
	"time"
)

// Close freezes the order: recomputes the total, applies the evaluated
// discount and leaves the aggregate in status closed with the share window
// shut. Idempotency for double close lives in the grouporder service, which
// returns the already-closed result without calling this again.
func (o *GroupOrder) Close(discountAmount int64, now time.Time) error {
	if err := o.transition(StatusClosed); err != nil {
		return err
	}

	o.recomputeTotals()
	if discountAmount < 0 {
		discountAmount = 0
	}
	if discountAmount > o.TotalAmount {
		discountAmount = o.TotalAmount
	}
	o.DiscountAmount = discountAmount
	o.FinalAmount = o.TotalAmount - discountAmount

	t := now
	o.ClosedAt = &t
	o.ShareToken = ""
	o.ShareLink = ""
	o.ShareExpiresAt = nil
	return nil
}

// Confirm records a successful conversion. MainOrderID is set exactly once,
// here.
func (o *GroupOrder) Confirm(mainOrderID string) error {
	if mainOrderID == "" {
		return fmt.Errorf("confirm: empty main order id")
	}
	if err := o.transition(StatusConfirmed); err != nil {
		return err
	}
	o.MainOrderID = mainOrderID
	return nil
}

// Cancel moves any non-terminal order to cancelled.
func (o *GroupOrder) Cancel() error {
	return o.transition(StatusCancelled)
}

// MirrorStatus applies a fulfillment status reported by the downstream
// order. Only the forward confirmed->...->delivered chain (or cancelled) is
// accepted; stale or out-of-order updates fail the transition check.
func (o *GroupOrder) MirrorStatus(next Status) error {
	if !next.valid() {
		return fmt.Errorf("%w: unknown status %q", ErrPhaseViolation, next)
	}
	if statusRank[next] < statusRank[StatusConfirmed] && next != StatusCancelled {
		return fmt.Errorf("%w: %s is not a fulfillment status", ErrPhaseViolation, next)
	}
	return o.transition(next)
}

// LineItem is one canonical order line with participant attribution kept for
// reconciliation and refunds.
type LineItem struct {
	DishID              string `json:"dish_id"`
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	Price               int64  `json:"price"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
	ParticipantID       string `json:"participant_id"`
}

// Snapshot is the immutable conversion input captured at close time.
type Snapshot struct {
	GroupOrderID     string           `json:"group_order_id"`
	ChefID           string           `json:"chef_id"`
	CreatedBy        string           `json:"created_by"`
	Currency         string           `json:"currency"`
	LineItems        []LineItem       `json:"line_items"`
	TotalAmount      int64            `json:"total_amount"`
	DiscountAmount   int64            `json:"discount_amount"`
	FinalAmount      int64            `json:"final_amount"`
	ParticipantCount int              `json:"participant_count"`
	DeliveryAddress  *DeliveryAddress `json:"delivery_address,omitempty"`
	DeliveryTime     string           `json:"delivery_time,omitempty"`
}

// Snapshot flattens all participant selections into canonical line items.
func (o *GroupOrder) Snapshot() Snapshot {
	s := Snapshot{
		GroupOrderID:     o.GroupOrderID,
		ChefID:           o.ChefID,
		CreatedBy:        o.CreatedBy,
		Currency:         string(o.Currency),
		TotalAmount:      o.TotalAmount,
		DiscountAmount:   o.DiscountAmount,
		FinalAmount:      o.FinalAmount,
		ParticipantCount: len(o.Participants),
		DeliveryAddress:  o.DeliveryAddress,
		DeliveryTime:     o.DeliveryTime,
	}
	for i := range o.Participants {
		p := &o.Participants[i]
		for _, it := range p.OrderItems {
			s.LineItems = append(s.LineItems, LineItem{
				DishID:              it.DishID,
				Name:                it.Name,
				Quantity:            it.Quantity,
				Price:               it.Price,
				SpecialInstructions: it.SpecialInstructions,
				ParticipantID:       p.UserID,
			})
		}
	}
	return s
}
