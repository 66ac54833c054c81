package handlers

import (
	"net/http"

	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
)

func Get(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := service.GetState(r.Context(), r.PathValue("id"))
		if err != nil {
			response.DomainError(w, err)
			return
		}
		response.OK(w, stateResponse{GroupOrder: o})
	}
}
