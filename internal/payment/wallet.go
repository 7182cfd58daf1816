package payment

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Wallet is the signing capability the gate needs: a public key and the
// ability to sign a transaction's message. Two variants exist: a vault
// wallet holding key material in memory, and an external signer that
// delegates to a caller-supplied callback.
type Wallet interface {
	PublicKey() string
	SignTransaction(tx *Transaction) error
}

// VaultWallet holds a server-side keypair loaded from a secret. The secret
// is either a JSON byte array (the common keygen output) or a base58 string.
// Key material never appears in logs or errors.
type VaultWallet struct {
	priv ed25519.PrivateKey
	pub  string
}

func NewVaultWallet(secret string) (*VaultWallet, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("vault secret not configured")
	}

	var raw []byte
	if strings.HasPrefix(secret, "[") {
		var ints []byte
		if err := json.Unmarshal([]byte(secret), &ints); err != nil {
			return nil, errors.New("vault secret is not a valid JSON byte array")
		}
		raw = ints
	} else {
		decoded, err := base58Decode(secret)
		if err != nil {
			return nil, errors.New("vault secret is not valid base58")
		}
		raw = decoded
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("vault secret has wrong length %d", len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return &VaultWallet{priv: priv, pub: base58Encode(pub)}, nil
}

func (w *VaultWallet) PublicKey() string { return w.pub }

func (w *VaultWallet) SignTransaction(tx *Transaction) error {
	msg := tx.Message.Serialize()
	tx.Signatures = [][]byte{ed25519.Sign(w.priv, msg)}
	return nil
}

// ExternalSignerWallet delegates signing to a caller-controlled callback,
// e.g. a roundtrip to a user wallet.
type ExternalSignerWallet struct {
	Address string
	Sign    func(message []byte) ([]byte, error)
}

func (w *ExternalSignerWallet) PublicKey() string { return w.Address }

func (w *ExternalSignerWallet) SignTransaction(tx *Transaction) error {
	if w.Sign == nil {
		return errors.New("external signer callback not set")
	}
	sig, err := w.Sign(tx.Message.Serialize())
	if err != nil {
		return err
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("external signer returned %d-byte signature", len(sig))
	}
	tx.Signatures = [][]byte{sig}
	return nil
}
