package ledger

import (
	"fmt"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/imbalance"
)

// Currency moves free balance in and out of accounts. Every movement
// returns the imbalance it leaves on total issuance; the caller reconciles
// it or lets the scope apply it.
type Currency struct {
	state core.State
	scope *imbalance.Scope
}

func NewCurrency(state core.State, scope *imbalance.Scope) *Currency {
	return &Currency{state: state, scope: scope}
}

// TotalIssuance reads the total; an uninitialized total reads as zero.
func TotalIssuance(state core.State) (core.Balance, error) {
	total, _, err := state.TotalIssuance()
	return total, err
}

func FreeBalance(state core.State, who core.AccountID) (core.Balance, error) {
	acc, err := state.GetAccount(who)
	if err != nil {
		return core.Balance{}, err
	}
	return acc.Usable(), nil
}

func TotalBalance(state core.State, who core.AccountID) (core.Balance, error) {
	acc, err := state.GetAccount(who)
	if err != nil {
		return core.Balance{}, err
	}
	return acc.Total(), nil
}

// CanSlash reports whether who holds at least amount of free balance.
func CanSlash(state core.State, who core.AccountID, amount core.Balance) (bool, error) {
	free, err := FreeBalance(state, who)
	if err != nil {
		return false, err
	}
	return !free.Lt(amount), nil
}

// Deposit credits amount to who, saturating. The returned Positive holds
// what was actually credited.
func (c *Currency) Deposit(who core.AccountID, amount core.Balance) (imbalance.Positive, error) {
	acc, err := c.state.GetAccount(who)
	if err != nil {
		return imbalance.Positive{}, fmt.Errorf("get account %s: %w", who, err)
	}
	credited := acc.Free
	acc.Free = acc.Free.SaturatingAdd(amount)
	credited, _ = acc.Free.CheckedSub(credited)
	if err := c.state.SetAccount(who, acc); err != nil {
		return imbalance.Positive{}, err
	}
	return c.scope.NewPositive(credited), nil
}

// Withdraw debits amount from who, or fails with ErrInsufficientFunds
// without touching the account.
func (c *Currency) Withdraw(who core.AccountID, amount core.Balance) (imbalance.Negative, error) {
	acc, err := c.state.GetAccount(who)
	if err != nil {
		return imbalance.Negative{}, fmt.Errorf("get account %s: %w", who, err)
	}
	rest, ok := acc.Free.CheckedSub(amount)
	if !ok {
		return imbalance.Negative{}, fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, acc.Free, amount)
	}
	acc.Free = rest
	if err := c.state.SetAccount(who, acc); err != nil {
		return imbalance.Negative{}, err
	}
	return c.scope.NewNegative(amount), nil
}

// Slash takes up to amount from who's free balance and returns the amount
// it could not take.
func (c *Currency) Slash(who core.AccountID, amount core.Balance) (imbalance.Negative, core.Balance, error) {
	acc, err := c.state.GetAccount(who)
	if err != nil {
		return imbalance.Negative{}, core.Balance{}, fmt.Errorf("get account %s: %w", who, err)
	}
	taken := acc.Free.Min(amount)
	acc.Free = acc.Free.SaturatingSub(taken)
	if err := c.state.SetAccount(who, acc); err != nil {
		return imbalance.Negative{}, core.Balance{}, err
	}
	return c.scope.NewNegative(taken), amount.SaturatingSub(taken), nil
}
