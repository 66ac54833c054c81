package middlewares

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/cribnosh/group-ordering/internal/auth"
	"github.com/cribnosh/group-ordering/internal/telemetry"
)

type (
	userKey struct{}
	nameKey struct{}
)

// UserID returns the authenticated user bound by Auth, or "" for
// unauthenticated requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// UserName returns the display name from the token, when present.
func UserName(ctx context.Context) string {
	name, _ := ctx.Value(nameKey{}).(string)
	return name
}

func Recovery(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic", slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())))
					writeJSON(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Auth requires a bearer token and binds the caller's identity to the
// request context.
func Auth(jwt *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeJSON(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
				return
			}

			claims, err := jwt.Validate(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, claims.UserID)
			ctx = context.WithValue(ctx, nameKey{}, claims.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

// Metrics records request counts and latency per route pattern.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			telemetry.RequestsTotal.WithLabelValues(
				r.Method, route, strconv.Itoa(rec.status)).Inc()
			telemetry.RequestDuration.WithLabelValues(route).
				Observe(time.Since(start).Seconds())
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encoder: %v", err)
	}
}
