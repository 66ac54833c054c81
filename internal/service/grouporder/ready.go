package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// SetReady toggles the caller's selection readiness. When the last
// participant becomes ready the phase converges to ready; with
// AutoCloseOnReady set the order is closed in the same commit, and the
// idempotent close path absorbs the race when two participants converge
// concurrently.
func (s *Service) SetReady(ctx context.Context, cmd *model.SetReadyCommand) (*model.GroupOrder, error) {
	result, err := s.mutate(ctx, cmd.GroupOrderID, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		if !cmd.Ready {
			if err := o.MarkNotReady(cmd.UserID); err != nil {
				return nil, err
			}
			return []model.Event{s.event(model.EventParticipantReady, o, cmd.UserID, map[string]any{
				"ready":           false,
				"selection_phase": string(o.SelectionPhase),
			})}, nil
		}

		if err := o.MarkReady(cmd.UserID, s.now()); err != nil {
			return nil, err
		}
		events := []model.Event{s.event(model.EventParticipantReady, o, cmd.UserID, map[string]any{
			"ready":           true,
			"selection_phase": string(o.SelectionPhase),
		})}
		if o.SelectionPhase == model.PhaseReady {
			events = append(events, s.phaseEvent(o, cmd.UserID))
			if s.cfg.AutoCloseOnReady {
				ev := s.evaluateDiscount(o)
				if err := o.Close(ev.DiscountAmount, s.now()); err != nil {
					return nil, err
				}
				events = append(events, s.event(model.EventClosed, o, "", map[string]any{
					"reason":       "all_ready",
					"final_amount": o.FinalAmount,
				}))
			}
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("readiness updated",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("user_id", cmd.UserID),
		slog.Bool("ready", cmd.Ready),
		slog.String("selection_phase", string(result.SelectionPhase)))
	return result, nil
}
