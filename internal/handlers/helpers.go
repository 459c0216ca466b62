package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

// writeJSON serialises v as JSON and writes it to the response with the
// given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeError writes a standard JSON error response of the form
// {"detail": "message"}.
func writeError(w http.ResponseWriter, status int, detail string) {
	_ = writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidationError writes a 422 response whose detail lists every
// rejected field.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	_ = writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": ve.Fields})
	return true
}
