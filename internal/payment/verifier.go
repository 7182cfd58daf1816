package payment

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingPayment = errors.New("payment required")
	ErrInvalidProof   = errors.New("payment proof invalid or unconfirmed")
	ErrReplayedProof  = errors.New("payment proof already used")
)

// BurnLedger records spent settlement signatures. Inserting a signature a
// second time must fail.
type BurnLedger interface {
	BurnPayment(ctx context.Context, signature, walletAddress string, amount int64, purpose string) error
}

// Verifier is the server side of the gate: it checks a presented proof
// against the chain and burns the signature so each payment settles exactly
// one action.
type Verifier struct {
	RPC          *RPCClient
	Ledger       BurnLedger
	Requirements Requirements
	// BurnConflict lets the caller map the ledger's duplicate error.
	BurnConflict error
}

// ChallengeBody is what a paid route answers with when no proof is present.
func (v *Verifier) ChallengeBody() *Challenge {
	return &Challenge{
		X402Version: 1,
		Error:       "payment required",
		Accepts:     []Requirements{v.Requirements},
	}
}

// Verify checks and burns a proof header. The signature must be confirmed
// AND its transaction must actually move the required amount of the required
// mint to the pay-to account, authorized and signed by the claimed payer —
// a finalized signature lifted from someone else's transaction settles
// nothing. Chain transport failures surface as plain errors, not as an
// invalid proof. Returns the payer address.
func (v *Verifier) Verify(ctx context.Context, header, purpose string) (string, error) {
	if header == "" {
		return "", ErrMissingPayment
	}
	proof, err := DecodeProof(header)
	if err != nil {
		return "", ErrInvalidProof
	}

	confirmed, err := v.RPC.SignatureConfirmed(ctx, proof.Signature)
	if errors.Is(err, ErrTransactionFailed) {
		return "", ErrInvalidProof
	}
	if err != nil {
		return "", fmt.Errorf("chain status lookup failed: %w", err)
	}
	if !confirmed {
		return "", ErrInvalidProof
	}

	detail, err := v.RPC.GetTransaction(ctx, proof.Signature)
	if errors.Is(err, ErrTransactionFailed) {
		return "", ErrInvalidProof
	}
	if err != nil {
		return "", fmt.Errorf("chain transaction lookup failed: %w", err)
	}
	if detail == nil || !v.paysRequirements(detail, proof.Payer) {
		return "", ErrInvalidProof
	}

	amount, err := v.Requirements.AmountValue()
	if err != nil {
		return "", ErrInvalidProof
	}
	if err := v.Ledger.BurnPayment(ctx, proof.Signature, proof.Payer, int64(amount), purpose); err != nil {
		if v.BurnConflict != nil && errors.Is(err, v.BurnConflict) {
			return "", ErrReplayedProof
		}
		return "", err
	}
	return proof.Payer, nil
}

// paysRequirements reports whether the transaction contains a token transfer
// satisfying the challenge terms: right destination, right mint, at least the
// required amount, authorized by the claimed payer, who also signed the
// transaction.
func (v *Verifier) paysRequirements(detail *TransactionDetail, payer string) bool {
	required, err := v.Requirements.AmountValue()
	if err != nil {
		return false
	}

	signed := false
	for _, s := range detail.Signers {
		if s == payer {
			signed = true
			break
		}
	}
	if !signed {
		return false
	}

	for _, tr := range detail.Transfers {
		if tr.Destination == v.Requirements.PayTo &&
			tr.Authority == payer &&
			tr.Mint == v.Requirements.Asset &&
			tr.Amount >= required {
			return true
		}
	}
	return false
}
