package statusapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the standard JSON envelope every status-API handler writes
// (spec.md §4.15 "JSON, for operators and for the dev-mode object-model
// sink").
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Timestamp: time.Now().UTC(), Data: data})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, Response{Status: "error", Timestamp: time.Now().UTC(), Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Response{Status: "error", Timestamp: time.Now().UTC(), Error: msg})
}
