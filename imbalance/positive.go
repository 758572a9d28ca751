package imbalance

import "github.com/tolelom/tolledger/core"

// Positive is pending supply to be added to total issuance.
type Positive struct {
	handle
}

// Split consumes p and returns two imbalances holding min(p, amount) and
// the remainder. Together they have p's effect.
func (p Positive) Split(amount core.Balance) (Positive, Positive) {
	c := p.live()
	c.consumed = true
	first := c.amount.Min(amount)
	rest, _ := c.amount.CheckedSub(first)
	return c.scope.NewPositive(first), c.scope.NewPositive(rest)
}

// Merge absorbs other into p and returns p.
func (p Positive) Merge(other Positive) Positive {
	p.Subsume(other)
	return p
}

// Subsume absorbs other into p in place. The sum saturates.
func (p Positive) Subsume(other Positive) {
	c, o := p.live(), other.live()
	if c == o {
		panic("imbalance: cannot subsume itself")
	}
	sameScope(c, o)
	c.amount = c.amount.SaturatingAdd(o.amount)
	o.consumed = true
}

// Offset cancels p against n. Both are consumed; the larger side's remainder
// comes back as a new imbalance, or nothing when they are equal.
func (p Positive) Offset(n Negative) SameOrOther[Positive, Negative] {
	c, o := p.live(), n.live()
	sameScope(c, o)
	c.consumed, o.consumed = true, true
	switch c.amount.Cmp(o.amount) {
	case 0:
		return noneOf[Positive, Negative]()
	case 1:
		rest, _ := c.amount.CheckedSub(o.amount)
		return sameOf[Positive, Negative](c.scope.NewPositive(rest))
	default:
		rest, _ := o.amount.CheckedSub(c.amount)
		return otherOf[Positive](c.scope.NewNegative(rest))
	}
}
