package imbalance

// Outcome tags a SameOrOther.
type Outcome int

const (
	None Outcome = iota
	Same
	Other
)

// SameOrOther is the result of offsetting an imbalance against its opposite:
// nothing when they cancel, or the remainder on whichever side was larger.
type SameOrOther[S, O any] struct {
	outcome Outcome
	same    S
	other   O
}

func noneOf[S, O any]() SameOrOther[S, O] {
	return SameOrOther[S, O]{outcome: None}
}

func sameOf[S, O any](s S) SameOrOther[S, O] {
	return SameOrOther[S, O]{outcome: Same, same: s}
}

func otherOf[S, O any](o O) SameOrOther[S, O] {
	return SameOrOther[S, O]{outcome: Other, other: o}
}

func (r SameOrOther[S, O]) Outcome() Outcome { return r.outcome }

func (r SameOrOther[S, O]) IsNone() bool { return r.outcome == None }

// Same returns the remainder when the receiver of Offset was larger.
func (r SameOrOther[S, O]) Same() (S, bool) { return r.same, r.outcome == Same }

// Other returns the remainder when the offset argument was larger.
func (r SameOrOther[S, O]) Other() (O, bool) { return r.other, r.outcome == Other }
