package handlers

import (
	"net/http"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/decode"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

type advancePhaseRequest struct {
	Revision int64 `json:"revision" validate:"gt=0"`
}

// AdvancePhase moves budgeting to selecting at the creator's discretion.
func AdvancePhase(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req advancePhaseRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.AdvancePhase(r.Context(), &model.AdvancePhaseCommand{
			GroupOrderID: r.PathValue("id"),
			UserID:       middlewares.UserID(r.Context()),
			Revision:     req.Revision,
		})
		if err != nil {
			response.DomainError(w, err)
			return
		}

		response.OK(w, stateResponse{GroupOrder: o})
	}
}
