package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SettlementError marks a paid call that failed during payment settlement.
// Callers must treat it as fatal for the wrapped call; the request was not
// accepted by the far side.
type SettlementError struct {
	Stage string
	Err   error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("payment settlement failed (%s): %v", e.Stage, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// Client wraps outbound HTTP calls with challenge/response settlement: a 402
// answer is settled on chain and the original request retried exactly once
// with proof attached. One logical call submits at most one transaction.
type Client struct {
	Wallet             Wallet
	RPC                *RPCClient
	Mint               string
	Network            string
	SourceTokenAccount string

	HTTP *http.Client
}

func NewClient(wallet Wallet, rpc *RPCClient, mint, network, sourceTokenAccount string) *Client {
	return &Client{
		Wallet:             wallet,
		RPC:                rpc,
		Mint:               mint,
		Network:            network,
		SourceTokenAccount: sourceTokenAccount,
		HTTP: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

// Do executes the request. The request must carry GetBody so it can be
// replayed after settlement.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	var challenge Challenge
	decodeErr := json.NewDecoder(resp.Body).Decode(&challenge)
	resp.Body.Close()
	if decodeErr != nil {
		return nil, &SettlementError{Stage: "challenge", Err: decodeErr}
	}

	proof, err := c.settle(req.Context(), &challenge)
	if err != nil {
		return nil, err
	}

	if req.GetBody == nil {
		return nil, &SettlementError{Stage: "retry", Err: fmt.Errorf("request body cannot be replayed")}
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, &SettlementError{Stage: "retry", Err: err}
	}

	retry := req.Clone(req.Context())
	retry.Body = body
	retry.Header.Set(PaymentHeader, proof.Encode())

	resp, err = c.HTTP.Do(retry)
	if err != nil {
		return nil, &SettlementError{Stage: "retry", Err: err}
	}
	if resp.StatusCode == http.StatusPaymentRequired {
		resp.Body.Close()
		return nil, &SettlementError{Stage: "retry", Err: fmt.Errorf("payment not accepted after settlement")}
	}
	return resp, nil
}

// settle picks the matching requirement, submits the transfer and waits for
// confirmation.
func (c *Client) settle(ctx context.Context, challenge *Challenge) (*Proof, error) {
	var reqs *Requirements
	for i := range challenge.Accepts {
		r := &challenge.Accepts[i]
		if r.Network == c.Network && r.Asset == c.Mint {
			reqs = r
			break
		}
	}
	if reqs == nil {
		return nil, &SettlementError{Stage: "challenge", Err: fmt.Errorf("no acceptable payment terms for network %s", c.Network)}
	}

	amount, err := reqs.AmountValue()
	if err != nil {
		return nil, &SettlementError{Stage: "challenge", Err: err}
	}

	blockhash, err := c.RPC.LatestBlockhash(ctx)
	if err != nil {
		return nil, &SettlementError{Stage: "blockhash", Err: err}
	}

	tx, err := NewTokenTransfer(c.Wallet.PublicKey(), c.SourceTokenAccount, reqs.PayTo, amount, blockhash)
	if err != nil {
		return nil, &SettlementError{Stage: "build", Err: err}
	}
	if err := c.Wallet.SignTransaction(tx); err != nil {
		return nil, &SettlementError{Stage: "sign", Err: err}
	}

	signature, err := c.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return nil, &SettlementError{Stage: "submit", Err: err}
	}
	if err := c.RPC.WaitForConfirmation(ctx, signature, 90*time.Second); err != nil {
		return nil, &SettlementError{Stage: "confirm", Err: err}
	}

	return &Proof{Signature: signature, Payer: c.Wallet.PublicKey()}, nil
}

// PostJSON is a convenience for paid JSON POSTs.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("paid call to %s returned status %d: %s", url, resp.StatusCode, msg)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
