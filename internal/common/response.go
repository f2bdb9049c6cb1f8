package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"` // Field-level validation messages
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErr writes err with the status HTTPStatusFromError picks for it.
// Validation errors carry their per-field messages; internal errors are not
// echoed to the client.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		RespondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrValidation.Error(), Details: verrs})
		return
	}
	code := HTTPStatusFromError(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		RespondWithError(w, code, ErrInternalServer.Error())
		return
	}
	RespondWithError(w, code, err.Error())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
