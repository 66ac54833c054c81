package model

// Clone deep-copies the aggregate. Stores hand out clones so callers can
// never reach into shared state.
func (o *GroupOrder) Clone() *GroupOrder {
	c := *o

	c.BudgetContributions = append([]BudgetContribution(nil), o.BudgetContributions...)

	c.Participants = make([]Participant, len(o.Participants))
	for i := range o.Participants {
		p := o.Participants[i]
		p.OrderItems = append([]OrderItem(nil), o.Participants[i].OrderItems...)
		if o.Participants[i].SelectionReadyAt != nil {
			t := *o.Participants[i].SelectionReadyAt
			p.SelectionReadyAt = &t
		}
		c.Participants[i] = p
	}

	if o.DeliveryAddress != nil {
		a := *o.DeliveryAddress
		c.DeliveryAddress = &a
	}
	if o.ShareExpiresAt != nil {
		t := *o.ShareExpiresAt
		c.ShareExpiresAt = &t
	}
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		c.ClosedAt = &t
	}
	return &c
}
