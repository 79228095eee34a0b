// Package handler provides the HTTP transport for Warden.
package handler

import (
	"encoding/json"
	"net/http"
)

// Response statuses.
const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Response is the JSON body returned by every account endpoint.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Status: statusSuccess, Message: message})
}

func writeFailure(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Status: statusFailed, Message: message})
}
