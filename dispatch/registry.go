package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tolelom/tolledger/core"
)

// ErrUnknownCall is returned for a call kind with no registered handler.
var ErrUnknownCall = errors.New("unknown call kind")

// Handler is the function signature every call module must implement.
type Handler func(ctx *Context, payload json.RawMessage) error

// Registry maps CallKinds to Handlers. Thread-safe for concurrent registration.
type Registry struct {
	mu       sync.RWMutex
	handlers map[core.CallKind]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[core.CallKind]Handler)}
}

// Register associates kind with h. Panics on duplicate registration.
func (r *Registry) Register(kind core.CallKind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		panic(fmt.Sprintf("dispatch: handler already registered for call kind %q", kind))
	}
	r.handlers[kind] = h
}

// Execute dispatches payload to the handler registered for kind.
func (r *Registry) Execute(kind core.CallKind, ctx *Context, payload json.RawMessage) error {
	r.mu.RLock()
	h, ok := r.handlers[kind]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCall, kind)
	}
	return h(ctx, payload)
}

// Has reports whether a handler is registered for kind.
func (r *Registry) Has(kind core.CallKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[kind]
	return ok
}

// Kinds lists the registered call kinds, sorted.
func (r *Registry) Kinds() []core.CallKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]core.CallKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
