package model

import (
	"fmt"
	"time"
)

// Mutation methods on the aggregate. Each validates its own preconditions and
// keeps the derived totals consistent; the grouporder service re-validates
// the whole aggregate before committing.

type JoinParams struct {
	UserID       string
	UserName     string
	AvatarURL    string
	Contribution int64       // optional initial chip-in, 0 to skip
	OrderItems   []OrderItem // accepted only once the selecting phase started
}

// Join adds a new participant. A join while the phase had converged to ready
// demotes it back to selecting, since "every participant ready" no longer
// holds.
func (o *GroupOrder) Join(p JoinParams, now time.Time) error {
	if o.Status != StatusActive {
		return fmt.Errorf("%w: order is %s", ErrPhaseViolation, o.Status)
	}
	if _, ok := o.Participant(p.UserID); ok {
		return ErrDuplicateParticipant
	}
	if len(p.OrderItems) > 0 && o.SelectionPhase == PhaseBudgeting {
		return fmt.Errorf("%w: selection has not started yet", ErrPhaseViolation)
	}
	if p.Contribution < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, p.Contribution)
	}
	if err := validItems(p.OrderItems); err != nil {
		return err
	}

	participant := Participant{
		UserID:          p.UserID,
		UserName:        p.UserName,
		UserInitials:    Initials(p.UserName),
		AvatarURL:       p.AvatarURL,
		JoinedAt:        now,
		OrderItems:      append([]OrderItem{}, p.OrderItems...),
		SelectionStatus: SelectionNotReady,
		PaymentStatus:   PaymentPending,
	}
	for _, it := range p.OrderItems {
		participant.TotalContribution += it.Price * int64(it.Quantity)
	}
	o.Participants = append(o.Participants, participant)

	if p.Contribution > 0 {
		o.TotalBudget += p.Contribution
		o.Participants[len(o.Participants)-1].BudgetContribution = p.Contribution
		o.BudgetContributions = append(o.BudgetContributions, BudgetContribution{
			UserID:        p.UserID,
			Amount:        p.Contribution,
			ContributedAt: now,
		})
	}

	o.recomputeTotals()
	if o.SelectionPhase == PhaseReady {
		o.SelectionPhase = PhaseSelecting
	}
	return nil
}

// AddContribution appends amount to the participant's pledge and to the
// aggregate ledger. The ledger is append-only; contributed_at is assigned
// here, at commit time, not by the client.
func (o *GroupOrder) AddContribution(userID string, amount int64, now time.Time) error {
	if o.Status != StatusActive {
		return fmt.Errorf("%w: order is %s", ErrPhaseViolation, o.Status)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	p, ok := o.Participant(userID)
	if !ok {
		return ErrNotParticipant
	}

	p.BudgetContribution += amount
	o.TotalBudget += amount
	o.BudgetContributions = append(o.BudgetContributions, BudgetContribution{
		UserID:        userID,
		Amount:        amount,
		ContributedAt: now,
	})
	return nil
}

// SetItems replaces the participant's selection. Changing a selection resets
// the participant to not_ready, and the phase back to selecting if it had
// converged.
func (o *GroupOrder) SetItems(userID string, items []OrderItem) error {
	if o.Status != StatusActive {
		return fmt.Errorf("%w: order is %s", ErrPhaseViolation, o.Status)
	}
	if o.SelectionPhase == PhaseBudgeting {
		return fmt.Errorf("%w: selection has not started yet", ErrPhaseViolation)
	}
	p, ok := o.Participant(userID)
	if !ok {
		return ErrNotParticipant
	}
	if err := validItems(items); err != nil {
		return err
	}

	p.OrderItems = append([]OrderItem{}, items...)
	p.TotalContribution = 0
	for _, it := range items {
		p.TotalContribution += it.Price * int64(it.Quantity)
	}
	p.SelectionStatus = SelectionNotReady
	p.SelectionReadyAt = nil

	o.recomputeTotals()
	if o.SelectionPhase == PhaseReady {
		o.SelectionPhase = PhaseSelecting
	}
	return nil
}

// MarkReady records that the participant finished selecting. When the last
// participant flips to ready the phase converges to ready.
func (o *GroupOrder) MarkReady(userID string, now time.Time) error {
	if o.Status != StatusActive {
		return fmt.Errorf("%w: order is %s", ErrPhaseViolation, o.Status)
	}
	if o.SelectionPhase == PhaseBudgeting {
		return fmt.Errorf("%w: selection has not started yet", ErrPhaseViolation)
	}
	p, ok := o.Participant(userID)
	if !ok {
		return ErrNotParticipant
	}
	if len(p.OrderItems) == 0 {
		return ErrEmptySelection
	}

	p.SelectionStatus = SelectionReady
	t := now
	p.SelectionReadyAt = &t

	if o.allReady() && o.SelectionPhase == PhaseSelecting {
		o.SelectionPhase = PhaseReady
	}
	return nil
}

// MarkNotReady flips the participant back; reversible any time before close.
func (o *GroupOrder) MarkNotReady(userID string) error {
	if o.Status != StatusActive {
		return fmt.Errorf("%w: order is %s", ErrPhaseViolation, o.Status)
	}
	p, ok := o.Participant(userID)
	if !ok {
		return ErrNotParticipant
	}

	p.SelectionStatus = SelectionNotReady
	p.SelectionReadyAt = nil
	if o.SelectionPhase == PhaseReady {
		o.SelectionPhase = PhaseSelecting
	}
	return nil
}

// StartSelecting advances budgeting -> selecting. The phase only moves
// forward; any other starting point is a violation.
func (o *GroupOrder) StartSelecting() error {
	if o.Status != StatusActive {
		return fmt.Errorf("%w: order is %s", ErrPhaseViolation, o.Status)
	}
	if o.SelectionPhase != PhaseBudgeting {
		return fmt.Errorf("%w: selection phase is already %s", ErrPhaseViolation, o.SelectionPhase)
	}
	o.SelectionPhase = PhaseSelecting
	return nil
}

func validItems(items []OrderItem) error {
	for _, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: quantity %d for %q", ErrInvalidAmount, it.Quantity, it.Name)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: price %d for %q", ErrInvalidAmount, it.Price, it.Name)
		}
	}
	return nil
}
