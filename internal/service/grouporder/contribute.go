package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// Contribute appends a budget pledge to the participant's ledger and the
// aggregate ledger in one commit. contributed_at is stamped here, not by the
// client, so the ledger preserves commit order.
func (s *Service) Contribute(ctx context.Context, cmd *model.ContributeCommand) (*model.GroupOrder, error) {
	result, err := s.mutate(ctx, cmd.GroupOrderID, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		if err := o.AddContribution(cmd.UserID, cmd.Amount, s.now()); err != nil {
			return nil, err
		}

		events := []model.Event{s.event(model.EventBudgetContributed, o, cmd.UserID, map[string]any{
			"amount":       cmd.Amount,
			"total_budget": o.TotalBudget,
		})}
		if s.maybeStartSelecting(o) {
			events = append(events, s.phaseEvent(o, ""))
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("budget contribution",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("user_id", cmd.UserID),
		slog.Int64("amount", cmd.Amount),
		slog.Int64("total_budget", result.TotalBudget))
	return result, nil
}
