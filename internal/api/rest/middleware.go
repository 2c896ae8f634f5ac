package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// claimsFrom extracts the authenticated caller from the request context
func claimsFrom(ctx context.Context) (*auth.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.TokenClaims)
	return claims, ok
}

// authMiddleware validates the bearer token and stores the caller identity
// in the request context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{
				Type: "unauthorized", Code: "MISSING_TOKEN", Message: "missing bearer token",
			}})
			return
		}

		claims, err := h.auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{
				Type: "unauthorized", Code: "INVALID_TOKEN", Message: "invalid or expired token",
			}})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// loggingMiddleware logs one line per request
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
