package handlers

import (
	"encoding/json"
	"net/http"

	"equipviz/backend/services/dashboard/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError answers with the status and user message of a classified error.
func writeAppError(w http.ResponseWriter, err error, fallback string) {
	writeError(w, apperr.HTTPStatus(err), apperr.MessageOf(err, fallback))
}
