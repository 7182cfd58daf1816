package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"scoutpost/backend/internal/audit"
	"scoutpost/backend/internal/auth"
	"scoutpost/backend/internal/database"
	"scoutpost/backend/internal/store"
)

type SetupHandler struct {
	db    *database.DB
	store *store.Store
}

func NewSetupHandler(db *database.DB, st *store.Store) *SetupHandler {
	return &SetupHandler{db: db, store: st}
}

type setupStatusResponse struct {
	NeedsSetup bool `json:"needsSetup"`
}

type createFirstOperatorRequest struct {
	Name string `json:"name"`
}

// CheckSetup returns whether the MCP surface needs its first operator.
func (h *SetupHandler) CheckSetup(w http.ResponseWriter, r *http.Request) {
	var count int
	err := h.db.Get(&count, "SELECT COUNT(*) FROM operators")
	if err != nil {
		// If table doesn't exist yet, needs setup
		respondOK(w, setupStatusResponse{NeedsSetup: true})
		return
	}
	respondOK(w, setupStatusResponse{NeedsSetup: count == 0})
}

// CreateFirstOperator creates the first admin operator and returns its API
// key once. Only works while no operators exist.
func (h *SetupHandler) CreateFirstOperator(w http.ResponseWriter, r *http.Request) {
	var count int
	err := h.db.Get(&count, "SELECT COUNT(*) FROM operators")
	if err == nil && count > 0 {
		respondError(w, http.StatusUnauthorized, CodeAuth, "Setup already completed")
		return
	}

	var req createFirstOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.ContainsRune(req.Name, '.') {
		respondError(w, http.StatusBadRequest, CodeValidation, "Name is required and must not contain '.'")
		return
	}

	plaintext, hash, err := auth.NewOperatorKey(req.Name)
	if err != nil {
		log.Printf("Failed to generate operator key: %v", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to create operator")
		return
	}

	op, err := h.store.CreateOperator(r.Context(), req.Name, hash, true)
	if err != nil {
		log.Printf("Failed to create operator: %v", err)
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to create operator")
		return
	}

	audit.Log(audit.EventOperatorCreated, req.Name, op.ID.String(), nil)
	respondOK(w, map[string]any{
		"operator": op,
		// Shown once; only the hash is stored.
		"apiKey": plaintext,
	})
}
