package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cribnosh/group-ordering/internal/auth"
	"github.com/cribnosh/group-ordering/internal/http/middlewares"
)

// Router assembles the public API. Every group ordering route requires a
// bearer token; health is open for probes.
func Router(log *slog.Logger, service GroupOrderService, converter Converter, jwt *auth.JWTManager) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	authed := middlewares.Auth(jwt)

	mux.Handle("POST /api/v1/group-orders", authed(Create(service)))
	mux.Handle("GET /api/v1/group-orders/{id}", authed(Get(service)))
	mux.Handle("POST /api/v1/group-orders/{id}/contributions", authed(Contribute(service)))
	mux.Handle("PUT /api/v1/group-orders/{id}/items", authed(SetItems(service)))
	mux.Handle("POST /api/v1/group-orders/{id}/ready", authed(SetReady(service)))
	mux.Handle("POST /api/v1/group-orders/{id}/phase", authed(AdvancePhase(service)))
	mux.Handle("POST /api/v1/group-orders/{id}/close", authed(Close(service, converter, log)))
	mux.Handle("POST /api/v1/group-orders/{id}/cancel", authed(Cancel(service)))

	mux.Handle("GET /api/v1/share/{token}", authed(ResolveShare(service)))
	mux.Handle("POST /api/v1/share/{token}/join", authed(Join(service)))

	var h http.Handler = mux
	h = middlewares.Metrics()(h)
	h = middlewares.RequestLogger(log)(h)
	h = middlewares.Recovery(log)(h)
	return h
}
