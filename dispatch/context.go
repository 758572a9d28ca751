package dispatch

import (
	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/events"
)

// Context is passed to every Handler. It carries the resolved origin, the
// state the call runs against, and the events the call wants to publish.
// Events are held back until the call commits.
type Context struct {
	Origin core.Origin
	State  core.State
	Call   *core.Call

	pending []events.Event
}

// NewContext builds a Context for running a handler outside a Dispatcher.
func NewContext(origin core.Origin, state core.State, call *core.Call) *Context {
	return &Context{Origin: origin, State: state, Call: call}
}

func (c *Context) callID() string {
	if c.Call == nil {
		return ""
	}
	return c.Call.ID
}

// DepositEvent queues an event for publication after commit.
func (c *Context) DepositEvent(typ events.EventType, data map[string]any) {
	c.pending = append(c.pending, events.New(typ, c.callID(), data))
}

// Events returns the queued events.
func (c *Context) Events() []events.Event {
	return append([]events.Event(nil), c.pending...)
}
