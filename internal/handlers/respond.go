package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"scoutpost/backend/internal/scout"
	"scoutpost/backend/internal/store"
)

// Error codes used across the whole surface. Handlers answer with exactly
// five HTTP statuses: 200, 400, 401, 404, 500.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodePayment    = "PAYMENT_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the standard response shape for every REST endpoint.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
	RequestID string     `json:"requestId,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if env.RequestID == "" {
		env.RequestID = uuid.New().String()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func respondOK(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: &ErrorInfo{Code: code, Message: message}})
}

// respondEngineError maps engine errors to the error taxonomy. Internal
// errors get a generic message; details stay in the server log.
func respondEngineError(w http.ResponseWriter, op string, err error) {
	var verr *scout.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, CodeValidation, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "Scout not found")
	default:
		log.Printf("%s failed: %v", op, err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}
