package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cribnosh/group-ordering/internal/domain/model"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/decode"
	"github.com/cribnosh/group-ordering/internal/http/lib/api/response"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

type closeRequest struct {
	Revision int64 `json:"revision" validate:"gt=0"`
}

// Close locks the group order and prices it. When a converter is configured
// the handoff to the main order system starts in the background; its outcome
// lands on the aggregate as confirmed or cancelled.
func Close(service GroupOrderService, converter Converter, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req closeRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.Close(r.Context(), &model.CloseCommand{
			GroupOrderID: r.PathValue("id"),
			UserID:       middlewares.UserID(r.Context()),
			Revision:     req.Revision,
		})
		if err != nil {
			response.DomainError(w, err)
			return
		}

		if converter != nil && o.Status == model.StatusClosed {
			go func(id string) {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()
				if _, err := converter.Convert(ctx, id); err != nil {
					log.Error("conversion failed",
						slog.String("group_order_id", id),
						slog.Any("error", err))
				}
			}(o.GroupOrderID)
		}

		response.OK(w, stateResponse{GroupOrder: o})
	}
}

type cancelRequest struct {
	Revision int64 `json:"revision" validate:"gt=0"`
}

func Cancel(service GroupOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelRequest
		if err := decode.JSONValid(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		o, err := service.Cancel(r.Context(), &model.CancelCommand{
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
