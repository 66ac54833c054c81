package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cribnosh/group-ordering/internal/domain/model"
)

type Response struct {
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("response json encode: %v", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Response{
		Status: status,
		Error:  msg,
	})
}

func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, msg)
}

func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal server error")
}

// DomainError maps the service's sentinel errors onto HTTP status codes.
// Unknown errors become a 500 with a generic body so internals never leak.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		Error(w, http.StatusNotFound, "group order not found")
	case errors.Is(err, model.ErrConcurrentModification):
		Error(w, http.StatusConflict, "state changed, retry with the latest revision")
	case errors.Is(err, model.ErrDuplicateParticipant):
		Error(w, http.StatusConflict, "already a participant")
	case errors.Is(err, model.ErrExpiredShareLink):
		Error(w, http.StatusGone, "share link expired")
	case errors.Is(err, model.ErrPhaseViolation):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrEmptySelection):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrInvalidAmount):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotParticipant):
		Error(w, http.StatusForbidden, "not a participant of this group order")
	case errors.Is(err, model.ErrForbidden):
		Error(w, http.StatusForbidden, "operation reserved for the creator")
	case errors.Is(err, model.ErrConversionFailed):
		Error(w, http.StatusBadGateway, "conversion to main order failed")
	default:
		InternalError(w)
	}
}
