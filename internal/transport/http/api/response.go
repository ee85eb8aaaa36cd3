package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// BatchData is the payload every batch trigger returns: counts plus a
// non-fatal error list, so the scheduler can log partial failures
// without treating the run as crashed.
type BatchData struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors"`
	Details   any      `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Batch(w http.ResponseWriter, processed int, errs []string, details any, requestID string) {
	if errs == nil {
		errs = []string{}
	}
	Success(w, BatchData{Processed: processed, Errors: errs, Details: details}, requestID)
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}
