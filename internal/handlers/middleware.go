package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"scoutpost/backend/internal/audit"
	"scoutpost/backend/internal/auth"
	"scoutpost/backend/internal/payment"
)

// WalletHeader identifies the payer on the paid surface.
const WalletHeader = "X-Wallet-Address"

type contextKey string

const walletContextKey contextKey = "wallet_address"

// WalletAuthMiddleware requires the wallet header. In strict mode it also
// validates the bearer credential and rejects when the embedded address
// does not match the header.
func WalletAuthMiddleware(strict bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wallet := r.Header.Get(WalletHeader)
			if wallet == "" {
				respondError(w, http.StatusBadRequest, CodeValidation, "Missing "+WalletHeader+" header")
				return
			}

			if strict {
				var token string
				authHeader := r.Header.Get("Authorization")
				if authHeader != "" {
					parts := strings.Split(authHeader, " ")
					if len(parts) == 2 && parts[0] == "Bearer" {
						token = parts[1]
					}
				}
				if token == "" {
					respondError(w, http.StatusUnauthorized, CodeAuth, "Missing authorization")
					return
				}
				claims, err := auth.ValidateToken(token)
				if err != nil {
					respondError(w, http.StatusUnauthorized, CodeAuth, "Invalid token")
					return
				}
				if claims.WalletAddress != wallet {
					respondError(w, http.StatusUnauthorized, CodeAuth, "Wallet address does not match credential")
					return
				}
			}

			ctx := context.WithValue(r.Context(), walletContextKey, wallet)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func walletFrom(r *http.Request) string {
	if v, ok := r.Context().Value(walletContextKey).(string); ok {
		return v
	}
	return r.Header.Get(WalletHeader)
}

// PaymentMiddleware gates a route behind settlement. A request without
// proof is answered with a 402 challenge; a request with proof is verified
// on chain and the signature burned before the handler runs.
func PaymentMiddleware(verifier *payment.Verifier, purpose string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(payment.PaymentHeader)
			if header == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPaymentRequired)
				json.NewEncoder(w).Encode(verifier.ChallengeBody())
				return
			}

			payer, err := verifier.Verify(r.Context(), header, purpose)
			if err != nil {
				audit.Log(audit.EventPaymentRejected, payer, purpose, nil)
				switch {
				case errors.Is(err, payment.ErrReplayedProof):
					respondError(w, http.StatusUnauthorized, CodePayment, "Payment already used")
				case errors.Is(err, payment.ErrInvalidProof), errors.Is(err, payment.ErrMissingPayment):
					respondError(w, http.StatusUnauthorized, CodePayment, "Payment verification failed")
				default:
					log.Printf("Payment verification error: %v", err)
					respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
				}
				return
			}

			audit.Log(audit.EventPaymentSettled, payer, purpose, nil)
			next.ServeHTTP(w, r)
		})
	}
}
