package dispatch

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/events"
)

var (
	ErrWrongChain   = errors.New("wrong chain id")
	ErrBadSignature = errors.New("bad signature")
	ErrBadNonce     = errors.New("invalid nonce")
	ErrHandlerPanic = errors.New("handler panicked")
)

// unknownKind labels metrics for calls whose kind has no handler.
const unknownKind = "unknown"

// Receipt describes a committed call.
type Receipt struct {
	CallID    string         `json:"call_id"`
	Events    []events.Event `json:"events"`
	StateRoot string         `json:"state_root"`
}

// Options configures a Dispatcher.
type Options struct {
	ChainID      string
	RootAccounts []core.AccountID
}

// Dispatcher authenticates calls and applies them one at a time. A call
// either commits with all its writes and events or leaves no trace.
type Dispatcher struct {
	mu       sync.RWMutex
	state    core.State
	registry *Registry
	emitter  *events.Emitter
	chainID  string
	roots    map[core.AccountID]struct{}
	log      zerolog.Logger
}

// New creates a Dispatcher. emitter may be nil.
func New(state core.State, registry *Registry, emitter *events.Emitter, opts Options, log zerolog.Logger) *Dispatcher {
	initPrometheusMetrics()
	roots := make(map[core.AccountID]struct{}, len(opts.RootAccounts))
	for _, r := range opts.RootAccounts {
		roots[r] = struct{}{}
	}
	return &Dispatcher{
		state:    state,
		registry: registry,
		emitter:  emitter,
		chainID:  opts.ChainID,
		roots:    roots,
		log:      log.With().Str("component", "dispatch").Logger(),
	}
}

// IsRoot reports whether id may submit sudo calls.
func (d *Dispatcher) IsRoot(id core.AccountID) bool {
	_, ok := d.roots[id]
	return ok
}

// ResolveOrigin authenticates call and decides who it runs as.
func (d *Dispatcher) ResolveOrigin(call *core.Call) (core.Origin, error) {
	if call.ChainID != d.chainID {
		return core.Origin{}, fmt.Errorf("%w: got %q want %q", ErrWrongChain, call.ChainID, d.chainID)
	}
	if !call.Signed() {
		if call.Sudo {
			return core.Origin{}, core.ErrNotAuthorized
		}
		return core.NoneOrigin(), nil
	}
	if err := call.Verify(); err != nil {
		return core.Origin{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if call.Sudo {
		if !d.IsRoot(call.From) {
			return core.Origin{}, core.ErrNotAuthorized
		}
		return core.RootOrigin(call.From), nil
	}
	return core.SignedOrigin(call.From), nil
}

// Submit authenticates and applies an externally submitted call.
func (d *Dispatcher) Submit(call *core.Call) (*Receipt, error) {
	origin, err := d.ResolveOrigin(call)
	if err != nil {
		prometheusCalls.WithLabelValues(d.metricKind(call.Kind), "rejected").Inc()
		d.log.Debug().Err(err).Str("call_id", call.ID).Msg("call rejected")
		return nil, err
	}
	return d.Apply(origin, call)
}

// metricKind bounds the kind label to registered kinds.
func (d *Dispatcher) metricKind(kind core.CallKind) string {
	if d.registry.Has(kind) {
		return string(kind)
	}
	return unknownKind
}

// Apply runs call under an already resolved origin. Signed calls must carry
// the account's next nonce. Events reach subscribers after the lock is
// released, so a subscriber may call View.
func (d *Dispatcher) Apply(origin core.Origin, call *core.Call) (*Receipt, error) {
	receipt, err := d.commit(origin, call)
	if err != nil {
		return nil, err
	}
	if d.emitter != nil {
		for _, ev := range receipt.Events {
			d.emitter.Emit(ev)
		}
	}
	return receipt, nil
}

// commit applies call and commits it while holding the write lock.
func (d *Dispatcher) commit(origin core.Origin, call *core.Call) (*Receipt, error) {
	start := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	kind := string(call.Kind)
	label := d.metricKind(call.Kind)
	defer func() {
		prometheusCallDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	snapID, err := d.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	ctx := NewContext(origin, d.state, call)
	if err := d.apply(ctx); err != nil {
		if revertErr := d.state.RevertToSnapshot(snapID); revertErr != nil {
			return nil, fmt.Errorf("revert snapshot after call failure: %w (revert: %v)", err, revertErr)
		}
		prometheusCalls.WithLabelValues(label, "failed").Inc()
		d.log.Debug().Err(err).Str("call_id", call.ID).Str("kind", kind).Msg("call failed")
		return nil, err
	}

	ctx.DepositEvent(events.EventCallApplied, map[string]any{
		"kind":   kind,
		"origin": origin.Kind.String(),
		"from":   string(call.From),
	})

	root := d.state.ComputeRoot()
	if err := d.state.Commit(); err != nil {
		if revertErr := d.state.RevertToSnapshot(snapID); revertErr != nil {
			d.log.Error().Err(revertErr).Msg("revert after failed commit")
		}
		prometheusCalls.WithLabelValues(label, "failed").Inc()
		return nil, fmt.Errorf("commit: %w", err)
	}
	prometheusCalls.WithLabelValues(label, "applied").Inc()
	if total, ok, err := d.state.TotalIssuance(); err == nil && ok {
		prometheusTotalIssuance.Set(total.Float64())
	}
	d.log.Info().Str("call_id", call.ID).Str("kind", kind).Str("origin", origin.Kind.String()).
		Str("state_root", root).Msg("call applied")

	return &Receipt{CallID: call.ID, Events: ctx.Events(), StateRoot: root}, nil
}

// apply checks and bumps the nonce, then dispatches to the handler.
// A handler panic is turned into an error so the caller reverts.
func (d *Dispatcher) apply(ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("call_id", ctx.Call.ID).Msg("handler panicked")
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	call := ctx.Call
	if call.Signed() {
		nonce, err := d.state.GetNonce(call.From)
		if err != nil {
			return fmt.Errorf("get nonce: %w", err)
		}
		if nonce != call.Nonce {
			return fmt.Errorf("%w: expected %d got %d", ErrBadNonce, nonce, call.Nonce)
		}
		if nonce == math.MaxUint64 {
			return fmt.Errorf("nonce overflow for account %s", call.From)
		}
		if err := d.state.SetNonce(call.From, nonce+1); err != nil {
			return err
		}
	}
	return d.registry.Execute(call.Kind, ctx, call.Payload)
}

// View runs fn against the state under the read lock. fn must not write.
func (d *Dispatcher) View(fn func(core.State) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(d.state)
}
