package handlers

import (
	"net/http"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/decode"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

type createRequest struct {
	ChefID          string                 `json:"chef_id" validate:"required"`
	KitchenName     string                 `json:"kitchen_name" validate:"required"`
	Title           string                 `json:"title"`
	InitialBudget   int64                  `json:"initial_budget" validate:"gt=0"`
	AvatarURL       string                 `json:"avatar_url"`
	DeliveryAddress *model.DeliveryAddress `json:"delivery_address"`
	DeliveryTime    string                 `json:"delivery_time"`
}

func Create(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.Create(r.Context(), &model.CreateGroupOrderCommand{
			CreatedBy:       middlewares.UserID(r.Context()),
			CreatorName:     middlewares.UserName(r.Context()),
			CreatorAvatar:   req.AvatarURL,
			ChefID:          req.ChefID,
			KitchenName:     req.KitchenName,
			Title:           req.Title,
			InitialBudget:   req.InitialBudget,
			DeliveryAddress: req.DeliveryAddress,
			DeliveryTime:    req.DeliveryTime,
		})
		if err != nil {
			response.DomainError(w, err)
			return
		}

		response.Created(w, stateResponse{GroupOrder: o})
	}
}
