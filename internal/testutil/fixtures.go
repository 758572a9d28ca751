// Package testutil provides fixtures shared by tests across the module.
// Never import this in production code.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/crypto"
	"github.com/tolelom/tolledger/storage"
)

const ChainID = "tolledger-test"

// NewState returns a StateDB over a fresh in-memory DB.
func NewState() (*storage.StateDB, *storage.MemDB) {
	db := storage.NewMemDB()
	return storage.NewStateDB(db), db
}

// Account is a key pair whose public key hex is the account id.
type Account struct {
	Priv crypto.PrivateKey
	ID   core.AccountID
}

func NewAccount(t testing.TB) Account {
	t.Helper()
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return Account{Priv: priv, ID: core.AccountID(pub.Hex())}
}

// SignedCall builds a call of kind signed by acct on ChainID.
func SignedCall(t testing.TB, acct Account, kind core.CallKind, nonce uint64, sudo bool, payload any) *core.Call {
	t.Helper()
	call, err := core.NewCall(ChainID, kind, nonce, payload)
	require.NoError(t, err)
	call.Sudo = sudo
	call.Sign(acct.Priv)
	return call
}

// SumBalances adds up free+locked of every account in state.
func SumBalances(t testing.TB, state core.State) core.Balance {
	t.Helper()
	var sum core.Balance
	require.NoError(t, state.ForEachAccount(func(_ core.AccountID, acc core.AccountData) bool {
		sum = sum.SaturatingAdd(acc.Total())
		return true
	}))
	return sum
}

// Total reads total issuance, failing the test on error.
func Total(t testing.TB, state core.State) core.Balance {
	t.Helper()
	total, _, err := state.TotalIssuance()
	require.NoError(t, err)
	return total
}

// Free reads the free balance of id.
func Free(t testing.TB, state core.State, id core.AccountID) core.Balance {
	t.Helper()
	acc, err := state.GetAccount(id)
	require.NoError(t, err)
	return acc.Free
}
