package imbalance

import (
	"errors"
	"fmt"

	"github.com/tolelom/tolledger/core"
)

// Scope owns every imbalance created through it. Close applies the ones
// still live, in creation order.
type Scope struct {
	iss       Issuance
	seed      SeedPolicy
	maxSupply core.Balance
	cells     []*cell
	closed    bool
}

// Option configures a Scope.
type Option func(*Scope)

// WithSeedPolicy sets how an uninitialized total is seeded. maxSupply is only
// consulted by SeedMaxSupply.
func WithSeedPolicy(p SeedPolicy, maxSupply core.Balance) Option {
	return func(s *Scope) {
		s.seed = p
		s.maxSupply = maxSupply
	}
}

// NewScope opens a scope over iss. Callers must Close it; Run does so on
// every exit path.
func NewScope(iss Issuance, opts ...Option) *Scope {
	s := &Scope{iss: iss}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run opens a scope, calls fn and closes the scope whether fn returns, fails
// or panics. A panic is re-raised after the close.
func Run(iss Issuance, fn func(*Scope) error, opts ...Option) (err error) {
	s := NewScope(iss, opts...)
	defer func() {
		if r := recover(); r != nil {
			_ = s.Close()
			panic(r)
		}
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func (s *Scope) newCell(sg sign, amount core.Balance) *cell {
	if s.closed {
		panic(ErrScopeClosed)
	}
	c := &cell{scope: s, sign: sg, amount: amount}
	s.cells = append(s.cells, c)
	return c
}

// NewPositive records amount of supply that was credited but not yet issued.
func (s *Scope) NewPositive(amount core.Balance) Positive {
	return Positive{handle{s.newCell(positive, amount)}}
}

// NewNegative records amount of supply that was debited but not yet retired.
func (s *Scope) NewNegative(amount core.Balance) Negative {
	return Negative{handle{s.newCell(negative, amount)}}
}

// ZeroPositive returns a Positive with no effect.
func (s *Scope) ZeroPositive() Positive { return s.NewPositive(core.Balance{}) }
// ZeroNegative returns a Negative with no effect.
func (s *Scope) ZeroNegative() Negative { return s.NewNegative(core.Balance{}) }

// Pending returns the number of live imbalances.
func (s *Scope) Pending() int {
	n := 0
	for _, c := range s.cells {
		if !c.consumed {
			n++
		}
	}
	return n
}

// Close applies every live imbalance to total issuance exactly once.
// Closing twice is a no-op.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, c := range s.cells {
		if c.consumed {
			continue
		}
		c.consumed = true
		if err := s.apply(c); err != nil {
			errs = append(errs, err)
		}
	}
	s.cells = nil
	return errors.Join(errs...)
}

// apply writes one imbalance's effect. Zero magnitudes have none.
func (s *Scope) apply(c *cell) error {
	if c.amount.IsZero() {
		return nil
	}
	err := s.iss.MutateTotalIssuance(func(cur core.Balance, initialized bool) core.Balance {
		if !initialized {
			if c.sign == positive && s.seed == SeedMaxSupply {
				return s.maxSupply
			}
			cur = core.Balance{}
		}
		if c.sign == positive {
			return cur.SaturatingAdd(c.amount)
		}
		return cur.SaturatingSub(c.amount)
	})
	if err != nil {
		return fmt.Errorf("apply imbalance %s: %w", c.amount, err)
	}
	return nil
}
