package imbalance

import "github.com/tolelom/tolledger/core"

// Negative is pending supply to be removed from total issuance.
type Negative struct {
	handle
}

// Split consumes n and returns min(n, amount) and the remainder.
func (n Negative) Split(amount core.Balance) (Negative, Negative) {
	c := n.live()
	c.consumed = true
	first := c.amount.Min(amount)
	rest, _ := c.amount.CheckedSub(first)
	return c.scope.NewNegative(first), c.scope.NewNegative(rest)
}

// Merge absorbs other into n and returns n.
func (n Negative) Merge(other Negative) Negative {
	n.Subsume(other)
	return n
}

// Subsume absorbs other into n in place. The sum saturates.
func (n Negative) Subsume(other Negative) {
	c, o := n.live(), other.live()
	if c == o {
		panic("imbalance: cannot subsume itself")
	}
	sameScope(c, o)
	c.amount = c.amount.SaturatingAdd(o.amount)
	o.consumed = true
}

// Offset cancels n against p and returns the larger side's remainder.
func (n Negative) Offset(p Positive) SameOrOther[Negative, Positive] {
	c, o := n.live(), p.live()
	sameScope(c, o)
	c.consumed, o.consumed = true, true
	switch c.amount.Cmp(o.amount) {
	case 0:
		return noneOf[Negative, Positive]()
	case 1:
		rest, _ := c.amount.CheckedSub(o.amount)
		return sameOf[Negative, Positive](c.scope.NewNegative(rest))
	default:
		rest, _ := o.amount.CheckedSub(c.amount)
		return otherOf[Negative](c.scope.NewPositive(rest))
	}
}
