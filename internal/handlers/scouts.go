package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"scoutpost/backend/internal/models"
	"scoutpost/backend/internal/scout"
)

// ScoutService is the slice of the lifecycle engine the HTTP surface uses.
type ScoutService interface {
	Create(ctx context.Context, req scout.CreateRequest) (*models.Scout, error)
	Refresh(ctx context.Context, scoutID string) (*models.Scout, error)
	StartRun(ctx context.Context, scoutID string) (*models.Run, error)
	ListRuns(ctx context.Context, scoutID string) ([]models.Run, error)
}

type ScoutsHandler struct {
	engine ScoutService
}

func NewScoutsHandler(engine ScoutService) *ScoutsHandler {
	return &ScoutsHandler{engine: engine}
}

type createScoutRequest struct {
	Name         string  `json:"name"`
	Instructions string  `json:"instructions"`
	ResultAction *string `json:"resultAction,omitempty"`
}

// CreateScout launches a new scout. The route is payment-gated; by the time
// this runs the fee has settled.
func (h *ScoutsHandler) CreateScout(w http.ResponseWriter, r *http.Request) {
	var req createScoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}

	sc, err := h.engine.Create(r.Context(), scout.CreateRequest{
		Name:          req.Name,
		Instructions:  req.Instructions,
		ResultAction:  req.ResultAction,
		WalletAddress: walletFrom(r),
	})
	if err != nil {
		respondEngineError(w, "Create scout", err)
		return
	}

	respondOK(w, sc.Project())
}

// GetScoutStatus refreshes and returns the scout. Free and poll-friendly.
func (h *ScoutsHandler) GetScoutStatus(w http.ResponseWriter, r *http.Request) {
	scoutID := mux.Vars(r)["scoutId"]

	sc, err := h.engine.Refresh(r.Context(), scoutID)
	if err != nil {
		respondEngineError(w, "Refresh scout", err)
		return
	}

	respondOK(w, sc.Project())
}

// StartRun begins a new execution record for an existing scout.
func (h *ScoutsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	scoutID := mux.Vars(r)["scoutId"]

	run, err := h.engine.StartRun(r.Context(), scoutID)
	if err != nil {
		respondEngineError(w, "Start run", err)
		return
	}

	respondOK(w, run)
}

// ListRuns returns run history, newest first.
func (h *ScoutsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	scoutID := mux.Vars(r)["scoutId"]

	runs, err := h.engine.ListRuns(r.Context(), scoutID)
	if err != nil {
		respondEngineError(w, "List runs", err)
		return
	}

	respondOK(w, runs)
}
