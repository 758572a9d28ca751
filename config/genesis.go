package config

import (
	"errors"
	"fmt"

	"github.com/tolelom/tolledger/core"
)

var (
	ErrDuplicateGenesisAccount   = errors.New("duplicate genesis account")
	ErrEmptyGenesisAccount       = errors.New("empty genesis account id")
	ErrGenesisSupplyOverflow     = errors.New("genesis balances overflow the balance type")
	ErrGenesisExceedsMaxSupply   = errors.New("genesis balances exceed max token supply")
	ErrGenesisCapAboveRuntimeMax = errors.New("genesis max_token_supply above the configured cap")
)

// GenesisBalance seeds one account.
type GenesisBalance struct {
	Account core.AccountID `json:"account" yaml:"account"`
	Balance core.Balance   `json:"balance" yaml:"balance"`
}

// GenesisConfig describes the ledger's initial state.
type GenesisConfig struct {
	Balances []GenesisBalance `json:"balances" yaml:"balances"`
	// MaxTokenSupply optionally lowers the cap the seed list is checked
	// against. It may not exceed the node's MaxTokenSupply.
	MaxTokenSupply *core.Balance `json:"max_token_supply,omitempty" yaml:"max_token_supply,omitempty"`
}

// ValidateGenesis checks the seed list against runtimeMax and returns the
// seeded total. The result does not depend on the order of the list.
func ValidateGenesis(g GenesisConfig, runtimeMax core.Balance) (core.Balance, error) {
	seen := make(map[core.AccountID]struct{}, len(g.Balances))
	var total core.Balance
	overflow := false
	for i, b := range g.Balances {
		if b.Account == "" {
			return core.Balance{}, fmt.Errorf("%w: entry %d", ErrEmptyGenesisAccount, i)
		}
		if _, dup := seen[b.Account]; dup {
			return core.Balance{}, fmt.Errorf("%w: %s", ErrDuplicateGenesisAccount, b.Account)
		}
		seen[b.Account] = struct{}{}
		if overflow {
			continue
		}
		sum, ok := total.CheckedAdd(b.Balance)
		if !ok {
			overflow = true
			continue
		}
		total = sum
	}
	if overflow {
		return core.Balance{}, ErrGenesisSupplyOverflow
	}

	limit := runtimeMax
	if g.MaxTokenSupply != nil {
		if g.MaxTokenSupply.Gt(runtimeMax) {
			return core.Balance{}, fmt.Errorf("%w: %s > %s", ErrGenesisCapAboveRuntimeMax, g.MaxTokenSupply, runtimeMax)
		}
		limit = *g.MaxTokenSupply
	}
	if total.Gt(limit) {
		return core.Balance{}, fmt.Errorf("%w: %s > %s", ErrGenesisExceedsMaxSupply, total, limit)
	}
	return total, nil
}

// BuildGenesis validates g and writes it to state, then commits. It is a
// no-op when total issuance was already initialized, so restarting a node
// keeps its data. It reports whether anything was written.
func BuildGenesis(g GenesisConfig, runtimeMax core.Balance, state core.State) (bool, error) {
	total, err := ValidateGenesis(g, runtimeMax)
	if err != nil {
		return false, err
	}
	if _, initialized, err := state.TotalIssuance(); err != nil {
		return false, err
	} else if initialized {
		return false, nil
	}

	for _, b := range g.Balances {
		if err := state.SetAccount(b.Account, core.AccountData{Free: b.Balance}); err != nil {
			return false, err
		}
	}
	if err := state.SetTotalIssuance(total); err != nil {
		return false, err
	}
	if err := state.Commit(); err != nil {
		return false, fmt.Errorf("commit genesis: %w", err)
	}
	return true, nil
}
