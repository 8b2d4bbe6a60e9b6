package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"decodex/internal/app"
	"decodex/internal/domain"
)

type ctxKey int

const claimsKey ctxKey = iota

func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireRole rejects requests without a valid bearer token of the given role.
func (h *Handlers) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, fmt.Errorf("authorization header must be in the format: Bearer {token}: %w", domain.ErrUnauthorized))
				return
			}
			claims, err := h.Auth.Parse(raw)
			if err != nil {
				writeError(w, err)
				return
			}
			if claims.Role != role {
				writeError(w, fmt.Errorf("%s token required: %w", role, domain.ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func subject(r *http.Request) string {
	claims, _ := r.Context().Value(claimsKey).(app.Claims)
	return claims.Subject
}
