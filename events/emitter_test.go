package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_TypedAndAll(t *testing.T) {
	e := NewEmitter(zerolog.Nop())
	rec := NewRecorder()
	e.SubscribeAll(rec.Handle)

	var burned int
	e.Subscribe(EventBurned, func(Event) { burned++ })

	e.Emit(New(EventBurned, "c1", map[string]any{"amount": "5"}))
	e.Emit(New(EventTotalIssued, "c2", nil))

	assert.Equal(t, 1, burned)
	require.Len(t, rec.Events(), 2)
	assert.Len(t, rec.OfType(EventTotalIssued), 1)

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func TestEmitter_PanickingHandlerIsContained(t *testing.T) {
	e := NewEmitter(zerolog.Nop())
	rec := NewRecorder()
	e.Subscribe(EventCallApplied, func(Event) { panic("bad subscriber") })
	e.Subscribe(EventCallApplied, rec.Handle)

	assert.NotPanics(t, func() { e.Emit(New(EventCallApplied, "c", nil)) })
	assert.Len(t, rec.Events(), 1)
}

func TestNew_AssignsUUID(t *testing.T) {
	a := New(EventMintedNewSupply, "c", nil)
	b := New(EventMintedNewSupply, "c", nil)
	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
