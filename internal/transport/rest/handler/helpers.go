package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/okso-hub/scrum-poker-sub000/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is the single translator every handler funnels failures
// through: known kinds keep their status and code, anything else becomes a
// generic 500 with no internals leaked.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, apiErr)
		return
	}

	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, &model.APIError{
		Code:    model.CodeInternal,
		Message: "internal server error",
	})
}
