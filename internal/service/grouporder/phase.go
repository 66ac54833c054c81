package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// AdvancePhase moves budgeting -> selecting on the creator's say-so.
func (s *Service) AdvancePhase(ctx context.Context, cmd *model.AdvancePhaseCommand) (*model.GroupOrder, error) {
	result, err := s.mutate(ctx, cmd.GroupOrderID, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		if o.CreatedBy != cmd.UserID {
			return nil, model.ErrForbidden
		}
		if err := o.StartSelecting(); err != nil {
			return nil, err
		}
		return []model.Event{s.phaseEvent(o, cmd.UserID)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("phase advanced",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("selection_phase", string(result.SelectionPhase)))
	return result, nil
}
