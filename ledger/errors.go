package ledger

import (
	"errors"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/lookup"
)

var (
	ErrNotAuthorized                  = core.ErrNotAuthorized
	ErrCannotLookup                   = lookup.ErrCannotLookup
	ErrMintTypeOverflow               = errors.New("mint overflows the balance type")
	ErrMintCausingTotalSupplyOverflow = errors.New("mint would exceed max token supply")
	ErrInsufficientFunds              = errors.New("insufficient funds")

	// ErrImbalanceMismatch means a paired debit and credit did not cancel.
	// It indicates a bug; the call is reverted.
	ErrImbalanceMismatch = errors.New("imbalance mismatch")
	ErrInvalidPayload    = errors.New("invalid payload")
)
