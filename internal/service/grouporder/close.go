package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// Close freezes the order and computes final pricing. Closing is idempotent:
// a second invocation returns the already-closed result instead of
// re-closing, so two concurrent triggers cannot double-apply the discount.
func (s *Service) Close(ctx context.Context, cmd *model.CloseCommand) (*model.GroupOrder, error) {
	o, err := s.load(ctx, cmd.GroupOrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.StatusActive {
		if o.Status == model.StatusCancelled {
			return nil, model.ErrPhaseViolation
		}
		// Already closed (or further along): no-op.
		return o, nil
	}
	if o.CreatedBy != cmd.UserID {
		return nil, model.ErrForbidden
	}
	if !o.HasSelections() {
		return nil, model.ErrEmptySelection
	}

	result, err := s.commit(ctx, o, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		ev := s.evaluateDiscount(o)
		if err := o.Close(ev.DiscountAmount, s.now()); err != nil {
			return nil, err
		}
		return []model.Event{s.event(model.EventClosed, o, cmd.UserID, map[string]any{
			"reason":          "creator_closed",
			"total_amount":    o.TotalAmount,
			"discount_amount": o.DiscountAmount,
			"final_amount":    o.FinalAmount,
		})}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group order closed",
		slog.String("group_order_id", result.GroupOrderID),
		slog.Int64("total_amount", result.TotalAmount),
		slog.Int64("discount_amount", result.DiscountAmount),
		slog.Int64("final_amount", result.FinalAmount))
	return result, nil
}

// Cancel moves a non-terminal order to cancelled. Only the creator may
// cancel; cancelling an already-cancelled order is a no-op.
func (s *Service) Cancel(ctx context.Context, cmd *model.CancelCommand) (*model.GroupOrder, error) {
	o, err := s.load(ctx, cmd.GroupOrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == model.StatusCancelled {
		return o, nil
	}
	if o.CreatedBy != cmd.UserID {
		return nil, model.ErrForbidden
	}

	result, err := s.commit(ctx, o, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		if err := o.Cancel(); err != nil {
			return nil, err
		}
		return []model.Event{s.event(model.EventCancelled, o, cmd.UserID, map[string]any{
			"reason": "creator_cancelled",
		})}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group order cancelled",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("cancelled_by", cmd.UserID))
	return result, nil
}
