package model

import "errors"

// Error taxonomy for group-order mutations. Validation errors are rejected
// before any persistence attempt; ErrConcurrentModification is retryable by
// the caller, the rest are not.
var (
	ErrConcurrentModification = errors.New("group order was modified concurrently")
	ErrPhaseViolation         = errors.New("action not valid in the current phase")
	ErrEmptySelection         = errors.New("cannot mark ready without any selections")
	ErrDuplicateParticipant   = errors.New("user already joined this group order")
	ErrExpiredShareLink       = errors.New("share link has expired")
	ErrInvalidAmount          = errors.New("amount must be a positive integer in the order currency")
	ErrNotFound               = errors.New("group order not found")
	ErrNotParticipant         = errors.New("user is not a participant in this group order")
	ErrForbidden              = errors.New("only the creator may perform this action")
	ErrConversionFailed       = errors.New("conversion to a fulfillable order failed")
)
