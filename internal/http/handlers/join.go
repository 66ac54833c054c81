package handlers

import (
	"net/http"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/decode"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

type joinRequest struct {
	Revision     int64             `json:"revision" validate:"gt=0"`
	Contribution int64             `json:"contribution" validate:"gte=0"`
	OrderItems   []model.OrderItem `json:"order_items"`
	AvatarURL    string            `json:"avatar_url"`
}

func Join(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.Join(r.Context(), &model.JoinCommand{
			ShareToken:   r.PathValue("token"),
			UserID:       middlewares.UserID(r.Context()),
			UserName:     middlewares.UserName(r.Context()),
			AvatarURL:    req.AvatarURL,
			Revision:     req.Revision,
			Contribution: req.Contribution,
			OrderItems:   req.OrderItems,
		})
		if err != nil {
			response.DomainError(w, err)
			return
		}

		response.OK(w, stateResponse{GroupOrder: o})
	}
}

// ResolveShare lets an invitee preview a group order before joining.
func ResolveShare(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := service.ResolveShareToken(r.Context(), r.PathValue("token"))
		if err != nil {
			response.DomainError(w, err)
			return
		}
		response.OK(w, stateResponse{GroupOrder: o})
	}
}
