package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Balance is an unsigned 256-bit token amount. The zero value is 0.
// Arithmetic never wraps: callers pick checked or saturating variants.
type Balance struct {
	v uint256.Int
}

// MaxBalance is the largest representable Balance.
var MaxBalance = func() Balance {
	var b Balance
	b.v.SetAllOne()
	return b
}()

// NewBalance returns a Balance holding n.
func NewBalance(n uint64) Balance {
	var b Balance
	b.v.SetUint64(n)
	return b
}

// ParseBalance parses a base-10 string.
func ParseBalance(s string) (Balance, error) {
	var b Balance
	if err := b.v.SetFromDecimal(s); err != nil {
		return Balance{}, fmt.Errorf("invalid balance %q: %w", s, err)
	}
	return b, nil
}

// MustParseBalance is ParseBalance that panics on error. Intended for
// constants and tests.
func MustParseBalance(s string) Balance {
	b, err := ParseBalance(s)
	if err != nil {
		panic(err)
	}
	return b
}

// CheckedAdd returns b+o, or ok=false if the sum does not fit.
func (b Balance) CheckedAdd(o Balance) (Balance, bool) {
	var r Balance
	if _, overflow := r.v.AddOverflow(&b.v, &o.v); overflow {
		return Balance{}, false
	}
	return r, true
}

// CheckedSub returns b-o, or ok=false if o > b.
func (b Balance) CheckedSub(o Balance) (Balance, bool) {
	var r Balance
	if _, underflow := r.v.SubOverflow(&b.v, &o.v); underflow {
		return Balance{}, false
	}
	return r, true
}

// SaturatingAdd returns b+o clamped to MaxBalance.
func (b Balance) SaturatingAdd(o Balance) Balance {
	if r, ok := b.CheckedAdd(o); ok {
		return r
	}
	return MaxBalance
}

// SaturatingSub returns b-o clamped to zero.
func (b Balance) SaturatingSub(o Balance) Balance {
	if r, ok := b.CheckedSub(o); ok {
		return r
	}
	return Balance{}
}

// Cmp returns -1, 0 or +1 comparing b with o.
func (b Balance) Cmp(o Balance) int { return b.v.Cmp(&o.v) }

func (b Balance) Lt(o Balance) bool { return b.v.Lt(&o.v) }
func (b Balance) Gt(o Balance) bool { return b.v.Gt(&o.v) }
func (b Balance) IsZero() bool      { return b.v.IsZero() }

// Min returns the smaller of b and o.
func (b Balance) Min(o Balance) Balance {
	if o.Lt(b) {
		return o
	}
	return b
}

// Uint64 returns the value and whether it fits in a uint64.
func (b Balance) Uint64() (uint64, bool) {
	return b.v.Uint64(), b.v.IsUint64()
}

// Float64 returns an approximation, used for metrics only.
func (b Balance) Float64() float64 {
	f, _ := new(big.Float).SetInt(b.v.ToBig()).Float64()
	return f
}

func (b Balance) String() string { return b.v.Dec() }

func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.v.Dec()), nil
}

func (b *Balance) UnmarshalText(text []byte) error {
	v, err := ParseBalance(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MarshalJSON encodes the balance as a quoted decimal string so values above
// 2^53 survive JavaScript clients.
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.v.Dec())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON number.
func (b *Balance) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return b.UnmarshalText([]byte(s))
	}
	return b.UnmarshalText(data)
}
