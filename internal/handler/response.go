package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/privacy-wallet/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the typed errors of the model package onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case model.IsValidationError(err):
		status, code = http.StatusBadRequest, "validation"
	case model.IsNotFoundError(err):
		status, code = http.StatusNotFound, "not_found"
	case model.IsExpiryRaceError(err):
		status, code = http.StatusConflict, "expired"
	case errors.Is(err, model.ErrInsufficientBalance):
		status, code = http.StatusUnprocessableEntity, "insufficient_balance"
	case model.IsQuoteError(err):
		status, code = http.StatusBadGateway, "quote_failed"
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error(), Code: "validation"})
		return false
	}
	return true
}

func requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: name + " is required", Code: "validation"})
		return "", false
	}
	return v, true
}
