package grouporder

import (
	"context"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// Join adds a new participant through a share link. The share window is
// checked against engine time; an elapsed window fails with
// ErrExpiredShareLink even while the order itself is still active.
func (s *Service) Join(ctx context.Context, cmd *model.JoinCommand) (*model.GroupOrder, error) {
	o, err := s.store.GetByShareToken(ctx, cmd.ShareToken)
	if err != nil {
		return nil, err
	}
	if o, err = s.applyExpiry(ctx, o); err != nil {
		return nil, err
	}
	if o.ShareExpired(s.now()) {
		return nil, model.ErrExpiredShareLink
	}

	result, err := s.commit(ctx, o, cmd.Revision, func(o *model.GroupOrder) ([]model.Event, error) {
		prePhase := o.SelectionPhase
		if err := o.Join(model.JoinParams{
			UserID:       cmd.UserID,
			UserName:     cmd.UserName,
			AvatarURL:    cmd.AvatarURL,
			Contribution: cmd.Contribution,
			OrderItems:   cmd.OrderItems,
		}, s.now()); err != nil {
			return nil, err
		}

		events := []model.Event{s.event(model.EventParticipantJoined, o, cmd.UserID, map[string]any{
			"participant_count": len(o.Participants),
		})}
		if cmd.Contribution > 0 {
			events = append(events, s.event(model.EventBudgetContributed, o, cmd.UserID, map[string]any{
				"amount":       cmd.Contribution,
				"total_budget": o.TotalBudget,
			}))
			if s.maybeStartSelecting(o) {
				events = append(events, s.phaseEvent(o, ""))
			}
		}
		if prePhase != o.SelectionPhase && o.SelectionPhase == model.PhaseSelecting && prePhase == model.PhaseReady {
			events = append(events, s.phaseEvent(o, cmd.UserID))
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("participant joined",
		slog.String("group_order_id", result.GroupOrderID),
		slog.String("user_id", cmd.UserID),
		slog.Int("participants", len(result.Participants)))
	return result, nil
}

func (s *Service) phaseEvent(o *model.GroupOrder, userID string) model.Event {
	return s.event(model.EventPhaseAdvanced, o, userID, map[string]any{
		"selection_phase": string(o.SelectionPhase),
	})
}
