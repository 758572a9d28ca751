// Package imbalance tracks pending changes to total issuance.
//
// A Positive imbalance is supply that has been credited to some account but
// not yet added to the total; a Negative one is supply debited but not yet
// removed. Every imbalance belongs to a Scope. It is either consumed by one
// of the reconciling operations (DropZero, Split, Merge, Subsume, Offset,
// Settle) or applied to the total exactly once when its Scope closes.
package imbalance

import (
	"errors"
	"fmt"

	"github.com/tolelom/tolledger/core"
)

var (
	// ErrNonZero is returned by DropZero when the magnitude is not zero.
	ErrNonZero = errors.New("imbalance: non-zero magnitude")
	// ErrConsumed is the panic value raised when a consumed imbalance is used.
	ErrConsumed = errors.New("imbalance: already consumed")
	// ErrScopeClosed is the panic value raised when creating on a closed scope.
	ErrScopeClosed = errors.New("imbalance: scope closed")
)

// Issuance is the total-issuance scalar an imbalance applies to.
// core.State satisfies it.
type Issuance interface {
	MutateTotalIssuance(f func(current core.Balance, initialized bool) core.Balance) error
}

// SeedPolicy decides the starting value when total issuance was never written.
type SeedPolicy int

const (
	// SeedZero treats an uninitialized total as 0 and then applies the delta.
	SeedZero SeedPolicy = iota
	// SeedMaxSupply sets an uninitialized total to the max supply when a
	// Positive applies, and to 0 when a Negative applies.
	SeedMaxSupply
)

func (p SeedPolicy) String() string {
	switch p {
	case SeedMaxSupply:
		return "max_supply"
	default:
		return "zero"
	}
}

// ParseSeedPolicy accepts "zero" (or "") and "max_supply".
func ParseSeedPolicy(s string) (SeedPolicy, error) {
	switch s {
	case "", "zero":
		return SeedZero, nil
	case "max_supply":
		return SeedMaxSupply, nil
	default:
		return SeedZero, fmt.Errorf("unknown seed policy %q", s)
	}
}

type sign int

const (
	positive sign = iota
	negative
)

// cell is the shared backing record of one imbalance. Handles copied by value
// all point at the same cell, so consuming through one consumes them all.
type cell struct {
	scope    *Scope
	sign     sign
	amount   core.Balance
	consumed bool
}

// handle holds the operations common to Positive and Negative.
type handle struct {
	c *cell
}

func (h handle) live() *cell {
	if h.c == nil || h.c.consumed {
		panic(ErrConsumed)
	}
	return h.c
}

// Peek returns the magnitude without consuming.
func (h handle) Peek() core.Balance { return h.live().amount }

// Live reports whether the imbalance is still pending.
func (h handle) Live() bool { return h.c != nil && !h.c.consumed }

// DropZero consumes the imbalance iff its magnitude is zero. Otherwise it
// returns ErrNonZero and the imbalance stays live.
func (h handle) DropZero() error {
	c := h.live()
	if !c.amount.IsZero() {
		return ErrNonZero
	}
	c.consumed = true
	return nil
}

// Settle applies the imbalance to total issuance now instead of at scope close.
func (h handle) Settle() error {
	c := h.live()
	c.consumed = true
	return c.scope.apply(c)
}

func sameScope(a, b *cell) {
	if a.scope != b.scope {
		panic("imbalance: operands belong to different scopes")
	}
}
