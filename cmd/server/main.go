package main

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"scoutpost/backend/internal/auth"
	"scoutpost/backend/internal/browser"
	"scoutpost/backend/internal/config"
	"scoutpost/backend/internal/database"
	"scoutpost/backend/internal/handlers"
	"scoutpost/backend/internal/llm"
	"scoutpost/backend/internal/middleware"
	"scoutpost/backend/internal/payment"
	"scoutpost/backend/internal/results"
	"scoutpost/backend/internal/scheduler"
	"scoutpost/backend/internal/scout"
	"scoutpost/backend/internal/store"
)

func main() {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	auth.SetSecret(cfg.JWTSecret)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Printf("Warning: failed to run migrations: %v", err)
	}

	st := store.New(db)
	rpc := payment.NewRPCClient(cfg.RPCURL)
	browserClient := browser.NewClient(cfg.BrowserBaseURL, cfg.BrowserAPIKey)

	// Vault wallet pays for server-initiated side effects (email sends,
	// MCP-settled creates). Missing secret keeps those surfaces degraded
	// but the rest of the server up.
	var vaultGate *payment.Client
	if cfg.VaultSecret != "" {
		vault, err := payment.NewVaultWallet(cfg.VaultSecret)
		if err != nil {
			log.Fatalf("Invalid vault secret: %v", err)
		}
		vaultGate = payment.NewClient(vault, rpc, cfg.TokenMint, cfg.Network(), cfg.VaultTokenAccount)
	} else {
		log.Println("WARNING: VAULT_SECRET_KEY not set; paid email sends and MCP create_scout are disabled")
	}

	llmClient := llm.NewAnthropicClient(cfg.LLMAPIKey, cfg.LLMModel)
	processor := results.NewProcessor(llmClient, vaultGate, cfg.EmailServiceURL)

	engine := scout.NewEngine(st, browserClient, processor)

	verifier := &payment.Verifier{
		RPC:    rpc,
		Ledger: st,
		Requirements: payment.Requirements{
			Scheme:      "exact",
			Network:     cfg.Network(),
			Amount:      formatAmount(cfg.CreateFeeAmount),
			Asset:       cfg.TokenMint,
			PayTo:       cfg.PayToAddress,
			Resource:    "/api/scouts/create",
			Description: "Launch an autonomous web scout",
		},
		BurnConflict: store.ErrAlreadySettled,
	}

	router := mux.NewRouter()
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Setup routes (public - for initial operator bootstrap only)
	setupHandler := handlers.NewSetupHandler(db, st)
	router.HandleFunc("/api/setup/status", setupHandler.CheckSetup).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/setup/create-operator", setupHandler.CreateFirstOperator).Methods("POST", "OPTIONS")

	scoutsHandler := handlers.NewScoutsHandler(engine)

	// Paid create: wallet header plus settled payment proof.
	createRouter := router.PathPrefix("/api/scouts/create").Subrouter()
	createRouter.Use(handlers.WalletAuthMiddleware(cfg.StrictAuth))
	createRouter.Use(handlers.PaymentMiddleware(verifier, "create_scout"))
	createRouter.HandleFunc("", scoutsHandler.CreateScout).Methods("POST", "OPTIONS")

	// Free poll surface
	router.HandleFunc("/api/scouts/{scoutId}/status", scoutsHandler.GetScoutStatus).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/scouts/{scoutId}/runs", scoutsHandler.StartRun).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/scouts/{scoutId}/runs", scoutsHandler.ListRuns).Methods("GET", "OPTIONS")

	// Agent tool protocol
	mcpHandler := handlers.NewMCPHandler(engine, st, vaultGate,
		cfg.SelfURL+"/api/scouts/create", cfg.CreateFeeAmount)
	router.HandleFunc("/api/mcp", mcpHandler.Handle).Methods("POST", "OPTIONS")

	if cfg.SweepIntervalSeconds > 0 {
		sweep := scheduler.New(st, engine, cfg.SweepIntervalSeconds)
		sweep.Start()
		defer sweep.Stop()
		log.Printf("Refresh sweep every %d second(s)", cfg.SweepIntervalSeconds)
	}

	log.Printf("Server starting on port %s (network: %s)", cfg.Port, cfg.Network())
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}
