package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrTransactionFailed marks a signature that landed on chain but whose
// transaction failed. It will never confirm and is not retryable.
var ErrTransactionFailed = errors.New("transaction failed on chain")

// RPCClient talks JSON-RPC to the settlement chain.
type RPCClient struct {
	url    string
	client *http.Client
}

func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode RPC response: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("RPC error [%d]: %s", result.Error.Code, result.Error.Message)
	}
	if out != nil {
		return json.Unmarshal(result.Result, out)
	}
	return nil
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	err := c.call(ctx, "getLatestBlockhash", []any{map[string]string{"commitment": "finalized"}}, &result)
	if err != nil {
		return "", err
	}
	if result.Value.Blockhash == "" {
		return "", fmt.Errorf("empty blockhash from RPC")
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *Transaction) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(tx.Serialize())
	var signature string
	err := c.call(ctx, "sendTransaction", []any{encoded, map[string]string{"encoding": "base64"}}, &signature)
	if err != nil {
		return "", err
	}
	return signature, nil
}

// SignatureConfirmed reports whether the signature landed without error at
// confirmed or finalized commitment.
func (c *RPCClient) SignatureConfirmed(ctx context.Context, signature string) (bool, error) {
	var result struct {
		Value []*struct {
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	err := c.call(ctx, "getSignatureStatuses",
		[]any{[]string{signature}, map[string]bool{"searchTransactionHistory": true}}, &result)
	if err != nil {
		return false, err
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return false, nil
	}
	st := result.Value[0]
	if st.Err != nil && string(st.Err) != "null" {
		return false, ErrTransactionFailed
	}
	return st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized", nil
}

// TokenTransfer is one parsed token-program transfer: who authorized it,
// where the tokens went, and the destination account's mint resolved from the
// post-transaction balances.
type TokenTransfer struct {
	Source      string
	Destination string
	Authority   string
	Mint        string
	Amount      uint64
}

// TransactionDetail is the slice of a confirmed transaction the verifier
// inspects before accepting a payment.
type TransactionDetail struct {
	Signers   []string
	Transfers []TokenTransfer
}

// GetTransaction fetches and parses a landed transaction. Returns nil detail
// when the chain does not know the signature, and ErrTransactionFailed when
// the transaction itself failed.
func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (*TransactionDetail, error) {
	var result struct {
		Meta *struct {
			Err               json.RawMessage `json:"err"`
			PostTokenBalances []struct {
				AccountIndex int    `json:"accountIndex"`
				Mint         string `json:"mint"`
			} `json:"postTokenBalances"`
		} `json:"meta"`
		Transaction struct {
			Message struct {
				AccountKeys []struct {
					Pubkey string `json:"pubkey"`
					Signer bool   `json:"signer"`
				} `json:"accountKeys"`
				Instructions []struct {
					ProgramID string `json:"programId"`
					Parsed    *struct {
						Type string `json:"type"`
						Info struct {
							Source      string `json:"source"`
							Destination string `json:"destination"`
							Authority   string `json:"authority"`
							Mint        string `json:"mint"`
							Amount      string `json:"amount"`
							TokenAmount struct {
								Amount string `json:"amount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"instructions"`
			} `json:"message"`
		} `json:"transaction"`
	}
	err := c.call(ctx, "getTransaction", []any{signature, map[string]any{
		"encoding":                       "jsonParsed",
		"commitment":                     "confirmed",
		"maxSupportedTransactionVersion": 0,
	}}, &result)
	if err != nil {
		return nil, err
	}
	if result.Meta == nil {
		return nil, nil
	}
	if result.Meta.Err != nil && string(result.Meta.Err) != "null" {
		return nil, ErrTransactionFailed
	}

	msg := &result.Transaction.Message
	detail := &TransactionDetail{}
	for _, key := range msg.AccountKeys {
		if key.Signer {
			detail.Signers = append(detail.Signers, key.Pubkey)
		}
	}

	// Plain transfers carry no mint; resolve it through the destination's
	// post-transaction token balance.
	mintOf := map[string]string{}
	for _, bal := range result.Meta.PostTokenBalances {
		if bal.AccountIndex >= 0 && bal.AccountIndex < len(msg.AccountKeys) {
			mintOf[msg.AccountKeys[bal.AccountIndex].Pubkey] = bal.Mint
		}
	}

	for _, ins := range msg.Instructions {
		if ins.ProgramID != tokenProgramID || ins.Parsed == nil {
			continue
		}
		if ins.Parsed.Type != "transfer" && ins.Parsed.Type != "transferChecked" {
			continue
		}
		info := ins.Parsed.Info
		raw := info.Amount
		if raw == "" {
			raw = info.TokenAmount.Amount
		}
		amount, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		mint := info.Mint
		if mint == "" {
			mint = mintOf[info.Destination]
		}
		detail.Transfers = append(detail.Transfers, TokenTransfer{
			Source:      info.Source,
			Destination: info.Destination,
			Authority:   info.Authority,
			Mint:        mint,
			Amount:      amount,
		})
	}
	return detail, nil
}

// WaitForConfirmation polls until the signature confirms or the deadline
// passes.
func (c *RPCClient) WaitForConfirmation(ctx context.Context, signature string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		ok, err := c.SignatureConfirmed(ctx, signature)
		if err == nil && ok {
			return nil
		}
		if errors.Is(err, ErrTransactionFailed) {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out for signature")
		case <-ticker.C:
		}
	}
}
