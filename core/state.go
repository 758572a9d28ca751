package core

import "errors"

// ErrNotFound is returned by storage backends when a key is absent.
var ErrNotFound = errors.New("not found")

// AccountID identifies a ledger account. In a running node it is the
// hex-encoded ed25519 public key of the account holder; the ledger itself
// only stores and compares it.
type AccountID string

// AccountData is the stored record for one account.
// Locked is reserved for a locking subsystem and never mutated by the ledger.
type AccountData struct {
	Free   Balance `json:"free"`
	Locked Balance `json:"locked"`
}

// Usable returns the spendable balance.
func (a AccountData) Usable() Balance { return a.Free }

// Total returns free + locked, saturating.
func (a AccountData) Total() Balance { return a.Free.SaturatingAdd(a.Locked) }

// State is the Balance Store. Writes go to a buffer that can be snapshotted,
// rolled back, and committed atomically to the underlying database.
type State interface {
	// Accounts
	GetAccount(id AccountID) (AccountData, error) // zero value when absent
	SetAccount(id AccountID, data AccountData) error
	ForEachAccount(fn func(id AccountID, data AccountData) bool) error

	// Total issuance. initialized is false until the scalar is first written.
	TotalIssuance() (total Balance, initialized bool, err error)
	SetTotalIssuance(total Balance) error
	MutateTotalIssuance(f func(current Balance, initialized bool) Balance) error

	// Replay protection, owned by the dispatcher.
	GetNonce(id AccountID) (uint64, error)
	SetNonce(id AccountID, nonce uint64) error

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root including the
	// uncommitted buffer.
	ComputeRoot() string
	// Commit flushes the write buffer to the underlying DB and clears it.
	Commit() error
}
