package server

import (
	"encoding/json"
	"net/http"

	"AudioEditor/core/apperr"
	"AudioEditor/logger"
	"AudioEditor/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError logs the internal error and answers with {code, detail}. Server-side
// failures keep their diagnostics out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	appErr := apperr.From(err, fallbackMessage)
	status := appErr.Status()

	fields := []logger.Field{
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.Int("status", status),
		logger.String("code", string(appErr.Code)),
		logger.ErrorField(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(appErr.UserMessage, fields...)
	} else {
		logger.Warn(appErr.UserMessage, fields...)
	}

	writeJSON(w, status, model.ErrorResponse{
		Code:   string(appErr.Code),
		Detail: appErr.UserMessage,
	})
}
