package wallet

import (
	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/crypto"
)

// Wallet holds a key pair and builds signed calls for one chain.
type Wallet struct {
	priv    crypto.PrivateKey
	pub     crypto.PublicKey
	chainID string
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey, chainID string) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public(), chainID: chainID}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate(chainID string) (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv, chainID), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// Account returns the account id, the hex-encoded ed25519 public key.
func (w *Wallet) Account() core.AccountID {
	return core.AccountID(w.pub.Hex())
}

// NewCall creates a signed call. nonce should match the account's current nonce.
func (w *Wallet) NewCall(kind core.CallKind, nonce uint64, sudo bool, payload any) (*core.Call, error) {
	call, err := core.NewCall(w.chainID, kind, nonce, payload)
	if err != nil {
		return nil, err
	}
	call.Sudo = sudo
	call.Sign(w.priv)
	return call, nil
}

// Mint creates a sudo mint call. Only accepted from a root account.
func (w *Wallet) Mint(beneficiary core.AccountID, amount core.Balance, nonce uint64) (*core.Call, error) {
	return w.NewCall(core.CallMint, nonce, true, core.MintPayload{Amount: amount, Beneficiary: beneficiary})
}

// Transfer creates a signed transfer call. to may be an account id or alias.
func (w *Wallet) Transfer(to string, amount core.Balance, nonce uint64) (*core.Call, error) {
	return w.NewCall(core.CallTransfer, nonce, false, core.TransferPayload{To: to, Amount: amount})
}

func (w *Wallet) Burn(amount core.Balance, nonce uint64) (*core.Call, error) {
	return w.NewCall(core.CallBurn, nonce, false, core.BurnPayload{Amount: amount})
}

func (w *Wallet) QueryTotalIssuance(nonce uint64) (*core.Call, error) {
	return w.NewCall(core.CallTotalIssuance, nonce, false, core.TotalIssuancePayload{})
}
