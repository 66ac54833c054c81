package model

import "fmt"

type Status string

const (
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusOnTheWay  Status = "on_the_way"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions is the forward edge set of the lifecycle machine. Cancellation
// from any non-terminal state is handled separately.
var transitions = map[Status]Status{
	StatusActive:    StatusClosed,
	StatusClosed:    StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusOnTheWay,
	StatusOnTheWay:  StatusDelivered,
}

// statusRank orders statuses for the "confirmed or later" checks.
var statusRank = map[Status]int{
	StatusActive:    0,
	StatusClosed:    1,
	StatusConfirmed: 2,
	StatusPreparing: 3,
	StatusReady:     4,
	StatusOnTheWay:  5,
	StatusDelivered: 6,
	StatusCancelled: 7,
}

func (s Status) valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further lifecycle transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is a legal single step.
func (s Status) CanTransition(next Status) bool {
	if next == StatusCancelled {
		return !s.Terminal()
	}
	return transitions[s] == next
}

// transition applies a single checked status change.
func (o *GroupOrder) transition(next Status) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrPhaseViolation, o.Status, next)
	}
	o.Status = next
	return nil
}

type SelectionPhase string

const (
	PhaseBudgeting SelectionPhase = "budgeting"
	PhaseSelecting SelectionPhase = "selecting"
	PhaseReady     SelectionPhase = "ready"
)

var phaseRank = map[SelectionPhase]int{
	PhaseBudgeting: 0,
	PhaseSelecting: 1,
	PhaseReady:     2,
}

func (p SelectionPhase) valid() bool {
	_, ok := phaseRank[p]
	return ok
}
