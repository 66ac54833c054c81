// Package handlers exposes the group ordering operations over HTTP. Each
// handler decodes a request, pulls the caller's identity from the auth
// middleware and delegates to the service; domain errors map to status codes
// in the response package.
package handlers

import (
	"context"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

type GroupOrderService interface {
	Create(ctx context.Context, cmd *model.CreateGroupOrderCommand) (*model.GroupOrder, error)
	Join(ctx context.Context, cmd *model.JoinCommand) (*model.GroupOrder, error)
	Contribute(ctx context.Context, cmd *model.ContributeCommand) (*model.GroupOrder, error)
	SetItems(ctx context.Context, cmd *model.SetItemsCommand) (*model.GroupOrder, error)
	SetReady(ctx context.Context, cmd *model.SetReadyCommand) (*model.GroupOrder, error)
	AdvancePhase(ctx context.Context, cmd *model.AdvancePhaseCommand) (*model.GroupOrder, error)
	Close(ctx context.Context, cmd *model.CloseCommand) (*model.GroupOrder, error)
	Cancel(ctx context.Context, cmd *model.CancelCommand) (*model.GroupOrder, error)
	GetState(ctx context.Context, groupOrderID string) (*model.GroupOrder, error)
	ResolveShareToken(ctx context.Context, token string) (*model.GroupOrder, error)
}

// Converter kicks off conversion of a closed group order into a main order.
type Converter interface {
	Convert(ctx context.Context, groupOrderID string) (*model.GroupOrder, error)
}

type stateResponse struct {
	GroupOrder *model.GroupOrder `json:"group_order"`
}
