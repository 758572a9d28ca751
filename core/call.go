package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolelom/tolledger/crypto"
)

// CallKind names a dispatchable ledger operation.
type CallKind string

const (
	CallMint          CallKind = "mint"
	CallTransfer      CallKind = "transfer"
	CallBurn          CallKind = "burn"
	CallTotalIssuance CallKind = "total_issuance"
)

// Call is one externally submitted state transition.
// From holds the caller's hex-encoded ed25519 public key; an empty From marks
// an unsigned call. Sudo asks the dispatcher to run the call with the root
// origin, which only succeeds for configured root accounts.
// Signature covers all fields except ID and Signature.
type Call struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Kind      CallKind        `json:"kind"`
	From      AccountID       `json:"from,omitempty"`
	Nonce     uint64          `json:"nonce"`
	Sudo      bool            `json:"sudo,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature,omitempty"`
}

type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Kind      CallKind        `json:"kind"`
	From      AccountID       `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Sudo      bool            `json:"sudo"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns the deterministic hash of the signed fields.
func (c *Call) Hash() string {
	data, err := json.Marshal(signingBody{
		ChainID:   c.ChainID,
		Kind:      c.Kind,
		From:      c.From,
		Nonce:     c.Nonce,
		Sudo:      c.Sudo,
		Timestamp: c.Timestamp,
		Payload:   c.Payload,
	})
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign sets From to the signer, then the signature and ID.
func (c *Call) Sign(priv crypto.PrivateKey) {
	c.From = AccountID(priv.Public().Hex())
	hash := c.Hash()
	c.Signature = crypto.Sign(priv, []byte(hash))
	c.ID = hash
}

// Signed reports whether the call claims a signer.
func (c *Call) Signed() bool { return c.From != "" }

// Verify checks that From is a valid public key and that it signed the call.
func (c *Call) Verify() error {
	if !c.Signed() {
		return errors.New("call is unsigned")
	}
	pub, err := crypto.PubKeyFromHex(string(c.From))
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	return crypto.Verify(pub, []byte(c.Hash()), c.Signature)
}

// NewCall creates an unsigned call stamped with the current time.
func NewCall(chainID string, kind CallKind, nonce uint64, payload any) (*Call, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	c := &Call{
		ChainID:   chainID,
		Kind:      kind,
		Nonce:     nonce,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}
	c.ID = c.Hash()
	return c, nil
}

// ---- Payload types ----

// MintPayload creates new supply for Beneficiary. Root only.
type MintPayload struct {
	Amount      Balance   `json:"amount"`
	Beneficiary AccountID `json:"beneficiary"`
}

// TransferPayload moves Amount from the caller to To. To is a lookup
// source: an account id or a registered alias.
type TransferPayload struct {
	To     string  `json:"to"`
	Amount Balance `json:"amount"`
}

// BurnPayload destroys Amount of the caller's free balance.
type BurnPayload struct {
	Amount Balance `json:"amount"`
}

// TotalIssuancePayload carries no fields.
type TotalIssuancePayload struct{}
