package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// SetItems replaces the caller's selection. Participants may only edit their
// own sub-record; the aggregate-wide invariants are re-checked on commit.
func (s *Service) SetItems(ctx context.Context, cmd *model.SetItemsCommand) (*model.GroupOrder, error) {
	result, err := s.mutate(ctx, cmd.GroupOrderID, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		if err := o.SetItems(cmd.UserID, cmd.OrderItems); err != nil {
			return nil, err
		}
		p, _ := o.Participant(cmd.UserID)
		return []model.Event{s.event(model.EventItemsUpdated, o, cmd.UserID, map[string]any{
			"item_count":         len(cmd.OrderItems),
			"total_contribution": p.TotalContribution,
			"total_amount":       o.TotalAmount,
		})}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("selection updated",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("user_id", cmd.UserID),
		slog.Int64("total_amount", result.TotalAmount))
	return result, nil
}
