package handlers

import (
	"net/http"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/decode"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

type contributeRequest struct {
	Revision int64 `json:"revision" validate:"gt=0"`
	Amount   int64 `json:"amount" validate:"gt=0"`
}

func Contribute(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contributeRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.Contribute(r.Context(), &model.ContributeCommand{
			GroupOrderID: r.PathValue("id"),
			UserID:       middlewares.UserID(r.Context()),
			Revision:     req.Revision,
			Amount:       req.Amount,
		})
		if err != nil {
			response.DomainError(w, err)
			return
		}

		response.OK(w, stateResponse{GroupOrder: o})
	}
}
