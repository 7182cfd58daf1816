package payment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
)

// PaymentHeader carries the settlement proof on a retried request.
const PaymentHeader = "X-Payment"

// Requirements is one accepted way to pay, carried in a 402 challenge.
type Requirements struct {
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Amount      string `json:"maxAmountRequired"`
	Asset       string `json:"asset"`
	PayTo       string `json:"payTo"`
	Resource    string `json:"resource,omitempty"`
	Description string `json:"description,omitempty"`
}

func (r *Requirements) AmountValue() (uint64, error) {
	n, err := strconv.ParseUint(r.Amount, 10, 64)
	if err != nil {
		return 0, errors.New("malformed amount in payment requirements")
	}
	return n, nil
}

// Challenge is the body of a 402 response.
type Challenge struct {
	X402Version int            `json:"x402Version"`
	Error       string         `json:"error,omitempty"`
	Accepts     []Requirements `json:"accepts"`
}

// Proof is what the payer attaches after settling: the on-chain signature
// and the paying public key.
type Proof struct {
	Signature string `json:"signature"`
	Payer     string `json:"payer"`
}

func (p *Proof) Encode() string {
	b, _ := json.Marshal(p)
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeProof(header string) (*Proof, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, errors.New("payment proof is not valid base64")
	}
	var p Proof
	if err := json.Unmarshal(raw, &p); err != nil || p.Signature == "" || p.Payer == "" {
		return nil, errors.New("payment proof is malformed")
	}
	return &p, nil
}
