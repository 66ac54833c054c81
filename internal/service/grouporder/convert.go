package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// System-initiated transitions used by the conversion pipeline and the
// fulfillment status feed. These carry no caller revision; they load fresh
// state and retry a bounded number of times on conflicts.

// Confirm records a successful conversion, setting main_order_id exactly
// once. Confirming an order already confirmed with the same main order is a
// no-op, which makes a retried conversion safe.
func (s *Service) Confirm(ctx context.Context, groupOrderID, mainOrderID string) (*model.GroupOrder, error) {
	o, err := s.load(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	if mainOrderID != "" && o.MainOrderID == mainOrderID {
		return o, nil
	}

	result, err := s.systemMutate(ctx, groupOrderID, func(o *model.GroupOrder) ([]model.Event, error) {
		if err := o.Confirm(mainOrderID); err != nil {
			return nil, err
		}
		return []model.Event{s.event(model.EventConfirmed, o, "", map[string]any{
			"main_order_id": mainOrderID,
			"final_amount":  o.FinalAmount,
		})}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group order confirmed",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("main_order_id", mainOrderID))
	return result, nil
}

// FailConversion cancels a closed order after a terminal conversion failure.
// main_order_id stays unset; refunds run through an external collaborator.
func (s *Service) FailConversion(ctx context.Context, groupOrderID, reason string) (*model.GroupOrder, error) {
	o, err := s.load(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == model.StatusCancelled {
		return o, nil
	}

	result, err := s.systemMutate(ctx, groupOrderID, func(o *model.GroupOrder) ([]model.Event, error) {
		if err := o.Cancel(); err != nil {
			return nil, err
		}
		return []model.Event{
			s.event(model.EventConversionFailed, o, "", map[string]any{"reason": reason}),
			s.event(model.EventCancelled, o, "", map[string]any{"reason": "conversion_failed"}),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("conversion failed, group order cancelled",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("reason", reason))
	return result, nil
}

// ApplyFulfillmentStatus mirrors a downstream order status onto the group
// order. Stale updates are dropped, repeats are no-ops.
func (s *Service) ApplyFulfillmentStatus(ctx context.Context, groupOrderID string, next model.Status) (*model.GroupOrder, error) {
	o, err := s.load(ctx, groupOrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == next {
		return o, nil
	}

	result, err := s.systemMutate(ctx, groupOrderID, func(o *model.GroupOrder) ([]model.Event, error) {
		if err := o.MirrorStatus(next); err != nil {
			return nil, err
		}
		return []model.Event{s.event(model.EventStatusMirrored, o, "", map[string]any{
			"status": string(next),
		})}, nil
	})
	if err != nil {
		// A concurrent mirror may have landed the same status first.
		if cur, getErr := s.store.Get(ctx, groupOrderID); getErr == nil && cur.Status == next {
			return cur, nil
		}
		return nil, err
	}

	s.logger.Info("fulfillment status mirrored",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("status", string(next)))
	return result, nil
}
