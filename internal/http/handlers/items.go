package handlers

import (
	"net/http"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/decode"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

type setItemsRequest struct {
	Revision   int64             `json:"revision" validate:"gt=0"`
	OrderItems []model.OrderItem `json:"order_items"`
}

func SetItems(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setItemsRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.SetItems(r.Context(), &model.SetItemsCommand{
			GroupOrderID: r.PathValue("id"),
			UserID:       middlewares.UserID(r.Context()),
			Revision:     req.Revision,
			OrderItems:   req.OrderItems,
		})
		if err != nil {
			response.DomainError(w, err)
			return
		}

		response.OK(w, stateResponse{GroupOrder: o})
	}
}
