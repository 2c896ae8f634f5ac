package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
)

// errorResponse is the failure envelope every endpoint returns
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string                 `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeError maps application errors onto HTTP responses. Unclassified
// errors become opaque 500s so internals never leak to callers.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("unclassified error reached the API boundary", zap.Error(err))
		appErr = domainerrors.NewInternalError("internal server error")
	}

	if appErr.Type == domainerrors.ErrorTypeInternal {
		h.logger.Error("request failed", zap.String("code", appErr.Code), zap.Error(err))
	}

	writeJSON(w, appErr.StatusCode, errorResponse{Error: errorBody{
		Type:    string(appErr.Type),
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
		Type:    string(domainerrors.ErrorTypeValidation),
		Code:    "BAD_REQUEST",
		Message: message,
	}})
}
