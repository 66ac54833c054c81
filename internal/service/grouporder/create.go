package grouporder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

// Create opens a new group order with the caller as creator and first
// participant.
func (s *Service) Create(ctx context.Context, cmd *model.CreateGroupOrderCommand) (*model.GroupOrder, error) {
	now := s.now()
	o, err := model.NewGroupOrder(model.NewGroupOrderParams{
		CreatedBy:       cmd.CreatedBy,
		CreatorName:     cmd.CreatorName,
		CreatorAvatar:   cmd.CreatorAvatar,
		ChefID:          cmd.ChefID,
		KitchenName:     cmd.KitchenName,
		Title:           cmd.Title,
		Currency:        s.cfg.Currency,
		InitialBudget:   cmd.InitialBudget,
		DeliveryAddress: cmd.DeliveryAddress,
		DeliveryTime:    cmd.DeliveryTime,
		ExpiresIn:       s.cfg.ExpiresIn,
		ShareTTL:        s.cfg.ShareTTL,
		ShareBaseURL:    s.cfg.ShareBaseURL,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invariant check: %w", err)
	}

	events := []model.Event{s.event(model.EventCreated, o, cmd.CreatedBy, map[string]any{
		"chef_id":        o.ChefID,
		"initial_budget": o.InitialBudget,
	})}
	msgs, err := s.outboxMessages(o, events)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, o, msgs); err != nil {
		return nil, fmt.Errorf("create group order: %w", err)
	}

	s.logger.Info("group order created",
		slog.String("group_order_id", o.GroupOrderID),
		slog.String("created_by", o.CreatedBy),
		slog.Int64("initial_budget", o.InitialBudget))
	return o, nil
}
