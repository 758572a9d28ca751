package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType labels what happened.
type EventType string

const (
	EventMintedNewSupply EventType = "minted_new_supply"
	EventTransferSuccess EventType = "transfer_success"
	EventTotalIssued     EventType = "total_issued"
	EventBurned          EventType = "burned"
	EventCallApplied     EventType = "call_applied"
)

// Event carries a typed payload emitted after a call commits.
type Event struct {
	ID     string         `json:"id"`
	Type   EventType      `json:"type"`
	CallID string         `json:"call_id"`
	Data   map[string]any `json:"data"`
}

// New stamps a fresh event ID.
func New(typ EventType, callID string, data map[string]any) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   typ,
		CallID: callID,
		Data:   data,
	}
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
	log      zerolog.Logger
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter(log zerolog.Logger) *Emitter {
	return &Emitter{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously.
// Each handler is guarded by panic recovery so a misbehaving subscriber
// cannot crash the node or undo a committed call.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := append(append([]Handler(nil), e.handlers[ev.Type]...), e.all...)
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Error().
						Str("event", string(ev.Type)).
						Str("call_id", ev.CallID).
						Interface("panic", r).
						Msg("event handler panicked")
				}
			}()
			h(ev)
		}()
	}
}

// Recorder keeps every event it receives. Attach it with SubscribeAll.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns recorded events of typ in arrival order.
func (r *Recorder) OfType(typ EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
