// Package lookup resolves the "to" field of a transfer to an account.
package lookup

import (
	"errors"
	"fmt"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/crypto"
)

// ErrCannotLookup is returned when a source does not name any account.
var ErrCannotLookup = errors.New("cannot lookup account")

// Identity treats every non-empty source as an account id.
type Identity struct{}

func (Identity) Lookup(source string) (core.AccountID, error) {
	if source == "" {
		return "", ErrCannotLookup
	}
	return core.AccountID(source), nil
}

// Table resolves registered aliases first, then accepts any well-formed
// public key hex.
type Table struct {
	aliases map[string]core.AccountID
}

// NewTable builds a Table. Every alias target must be a public key hex.
func NewTable(aliases map[string]string) (*Table, error) {
	t := &Table{aliases: make(map[string]core.AccountID, len(aliases))}
	for name, target := range aliases {
		if name == "" {
			return nil, errors.New("empty alias name")
		}
		if !crypto.IsPubKeyHex(target) {
			return nil, fmt.Errorf("alias %q: target %q is not a public key", name, target)
		}
		t.aliases[name] = core.AccountID(target)
	}
	return t, nil
}

func (t *Table) Lookup(source string) (core.AccountID, error) {
	if id, ok := t.aliases[source]; ok {
		return id, nil
	}
	if crypto.IsPubKeyHex(source) {
		return core.AccountID(source), nil
	}
	return "", fmt.Errorf("%w: %q", ErrCannotLookup, source)
}
