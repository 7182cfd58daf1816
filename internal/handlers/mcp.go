package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"scoutpost/backend/internal/auth"
	"scoutpost/backend/internal/models"
	"scoutpost/backend/internal/payment"
	"scoutpost/backend/internal/store"
)

// toolName is the closed set of agent-callable tools. Dispatch never
// matches open-ended strings beyond this set.
type toolName string

const (
	toolCreateScout    toolName = "create_scout"
	toolGetScoutStatus toolName = "get_scout_status"
)

type OperatorStore interface {
	GetOperatorByName(ctx context.Context, name string) (*models.Operator, error)
}

// MCPHandler exposes the lifecycle engine over the agent tool protocol.
// create_scout is settled by the vault wallet against the paid REST route,
// so the agent's operator pays on the user's behalf.
type MCPHandler struct {
	engine    ScoutService
	operators OperatorStore
	gate      *payment.Client
	createURL string
	feeAmount uint64
}

func NewMCPHandler(engine ScoutService, operators OperatorStore, gate *payment.Client, createURL string, feeAmount uint64) *MCPHandler {
	return &MCPHandler{
		engine:    engine,
		operators: operators,
		gate:      gate,
		createURL: createURL,
		feeAmount: feeAmount,
	}
}

type mcpRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type mcpResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

func toolText(text string, isError bool) *mcpResult {
	return &mcpResult{
		Content: []mcpContent{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// Handle serves POST /api/mcp.
func (h *MCPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req mcpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid request body")
		return
	}

	switch req.Method {
	case "tools/list":
		h.listTools(w)
	case "tools/call":
		h.callTool(w, r, &req)
	default:
		respondError(w, http.StatusBadRequest, CodeValidation, "Unknown method: "+req.Method)
	}
}

func (h *MCPHandler) listTools(w http.ResponseWriter) {
	tools := []map[string]any{
		{
			"name": string(toolCreateScout),
			"description": fmt.Sprintf(
				"Launch an autonomous web scout. Costs %d tokens, settled by the operator's vault.", h.feeAmount),
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":         map[string]any{"type": "string", "description": "Display name, max 100 chars"},
					"instructions": map[string]any{"type": "string", "description": "What the scout should do on the web"},
					"resultAction": map[string]any{"type": "string", "description": "Optional follow-up action applied to the result"},
					"authToken":    map[string]any{"type": "string", "description": "Operator API key"},
				},
				"required": []string{"name", "instructions", "authToken"},
			},
		},
		{
			"name":        string(toolGetScoutStatus),
			"description": "Get the current status and result of a scout. Free.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"scoutId":   map[string]any{"type": "string"},
					"authToken": map[string]any{"type": "string", "description": "Operator API key"},
				},
				"required": []string{"scoutId", "authToken"},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"tools": tools})
}

func (h *MCPHandler) callTool(w http.ResponseWriter, r *http.Request, req *mcpRequest) {
	args := req.Params.Arguments
	if args == nil {
		args = map[string]any{}
	}

	token, _ := args["authToken"].(string)
	if !h.authorize(r.Context(), token) {
		respondError(w, http.StatusUnauthorized, CodeAuth, "Invalid operator credential")
		return
	}

	var result *mcpResult
	switch toolName(req.Params.Name) {
	case toolCreateScout:
		result = h.createScout(r.Context(), args)
	case toolGetScoutStatus:
		result = h.getScoutStatus(r.Context(), args)
	default:
		respondError(w, http.StatusBadRequest, CodeValidation, "Unknown tool: "+req.Params.Name)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *MCPHandler) authorize(ctx context.Context, apiKey string) bool {
	name, secret, ok := auth.SplitOperatorKey(apiKey)
	if !ok {
		return false
	}
	op, err := h.operators.GetOperatorByName(ctx, name)
	if err != nil {
		return false
	}
	return auth.CheckOperatorSecret(secret, op.APIKeyHash)
}

// createScout settles the fee with the vault wallet and calls the paid REST
// route, so the same gate logic covers both surfaces.
func (h *MCPHandler) createScout(ctx context.Context, args map[string]any) *mcpResult {
	if h.gate == nil {
		return toolText("vault wallet not configured; create_scout unavailable", true)
	}

	name, _ := args["name"].(string)
	instructions, _ := args["instructions"].(string)
	if name == "" || instructions == "" {
		return toolText("name and instructions are required", true)
	}

	body := map[string]any{"name": name, "instructions": instructions}
	if ra, ok := args["resultAction"].(string); ok && ra != "" {
		body["resultAction"] = ra
	}

	wallet, _ := args["walletAddress"].(string)
	if wallet == "" {
		wallet = h.gate.Wallet.PublicKey()
	}

	var out struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorInfo      `json:"error"`
	}
	err := h.gate.PostJSON(ctx, h.createURL, map[string]string{WalletHeader: wallet}, body, &out)
	if err != nil {
		var serr *payment.SettlementError
		if errors.As(err, &serr) {
			return toolText("payment settlement failed: "+serr.Stage, true)
		}
		return toolText("create_scout failed: "+err.Error(), true)
	}
	if !out.Success {
		msg := "create_scout failed"
		if out.Error != nil {
			msg = out.Error.Message
		}
		return toolText(msg, true)
	}
	return toolText(string(out.Data), false)
}

func (h *MCPHandler) getScoutStatus(ctx context.Context, args map[string]any) *mcpResult {
	scoutID, _ := args["scoutId"].(string)
	if scoutID == "" {
		return toolText("scoutId is required", true)
	}

	sc, err := h.engine.Refresh(ctx, scoutID)
	if errors.Is(err, store.ErrNotFound) {
		return toolText("scout not found: "+scoutID, true)
	}
	if err != nil {
		return toolText("failed to refresh scout", true)
	}

	raw, err := json.Marshal(sc.Project())
	if err != nil {
		return toolText("failed to encode scout", true)
	}
	return toolText(string(raw), false)
}
