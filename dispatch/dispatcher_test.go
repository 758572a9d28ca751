package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/events"
	"github.com/tolelom/tolledger/internal/testutil"
	"github.com/tolelom/tolledger/storage"
)

const (
	kindCredit core.CallKind = "credit"
	kindFail   core.CallKind = "fail"
	kindPanic  core.CallKind = "panic"
	kindWhoAmI core.CallKind = "whoami"
)

type creditPayload struct {
	Who    core.AccountID `json:"who"`
	Amount core.Balance   `json:"amount"`
}

type fixture struct {
	state *storage.StateDB
	db    *storage.MemDB
	disp  *Dispatcher
	rec   *events.Recorder
	root  testutil.Account
	seen  []core.Origin
}

func newFixture(t *testing.T) *fixture {
	state, db := testutil.NewState()
	f := &fixture{state: state, db: db, rec: events.NewRecorder(), root: testutil.NewAccount(t)}

	reg := NewRegistry()
	reg.Register(kindCredit, func(ctx *Context, payload json.RawMessage) error {
		var p creditPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		acc, err := ctx.State.GetAccount(p.Who)
		if err != nil {
			return err
		}
		acc.Free = acc.Free.SaturatingAdd(p.Amount)
		if err := ctx.State.SetAccount(p.Who, acc); err != nil {
			return err
		}
		ctx.DepositEvent("credited", map[string]any{"who": string(p.Who)})
		return nil
	})
	reg.Register(kindFail, func(ctx *Context, _ json.RawMessage) error {
		_ = ctx.State.SetAccount("victim", core.AccountData{Free: core.NewBalance(1)})
		ctx.DepositEvent("never", nil)
		return errors.New("handler failed")
	})
	reg.Register(kindPanic, func(ctx *Context, _ json.RawMessage) error {
		_ = ctx.State.SetAccount("victim", core.AccountData{Free: core.NewBalance(1)})
		panic("boom")
	})
	reg.Register(kindWhoAmI, func(ctx *Context, _ json.RawMessage) error {
		f.seen = append(f.seen, ctx.Origin)
		return nil
	})

	em := events.NewEmitter(zerolog.Nop())
	em.SubscribeAll(f.rec.Handle)
	f.disp = New(state, reg, em, Options{
		ChainID:      testutil.ChainID,
		RootAccounts: []core.AccountID{f.root.ID},
	}, zerolog.Nop())
	return f
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	h := func(*Context, json.RawMessage) error { return nil }
	reg.Register("x", h)
	assert.Panics(t, func() { reg.Register("x", h) })
	reg.Register("a", h)
	assert.Equal(t, []core.CallKind{"a", "x"}, reg.Kinds())
	assert.True(t, reg.Has("x"))
	assert.False(t, reg.Has("missing"))

	err := reg.Execute("missing", NewContext(core.NoneOrigin(), nil, nil), nil)
	assert.ErrorIs(t, err, ErrUnknownCall)
}

func TestSubmit_CommitsAndEmits(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewAccount(t)
	call := testutil.SignedCall(t, alice, kindCredit, 0, false, creditPayload{Who: "bob", Amount: core.NewBalance(9)})

	receipt, err := f.disp.Submit(call)
	require.NoError(t, err)
	assert.Equal(t, call.ID, receipt.CallID)
	assert.Equal(t, f.state.ComputeRoot(), receipt.StateRoot)
	require.Len(t, receipt.Events, 2)
	assert.Equal(t, events.EventType("credited"), receipt.Events[0].Type)
	assert.Equal(t, events.EventCallApplied, receipt.Events[1].Type)
	assert.Equal(t, call.ID, receipt.Events[0].CallID)
	assert.Len(t, f.rec.Events(), 2)

	assert.Equal(t, core.NewBalance(9), testutil.Free(t, f.state, "bob"))
	assert.Positive(t, f.db.Len(), "committed to the db")

	n, err := f.state.GetNonce(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestSubmit_FailureRevertsEverything(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewAccount(t)
	rootBefore := f.state.ComputeRoot()

	_, err := f.disp.Submit(testutil.SignedCall(t, alice, kindFail, 0, false, nil))
	require.Error(t, err)
	_, err = f.disp.Submit(testutil.SignedCall(t, alice, kindPanic, 0, false, nil))
	assert.ErrorIs(t, err, ErrHandlerPanic)

	assert.Equal(t, rootBefore, f.state.ComputeRoot())
	assert.Empty(t, f.rec.Events())
	assert.Zero(t, f.db.Len())

	// the nonce did not advance, so 0 is still the next one
	_, err = f.disp.Submit(testutil.SignedCall(t, alice, kindWhoAmI, 0, false, nil))
	require.NoError(t, err)
}

func TestSubmit_NonceReplay(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewAccount(t)
	call := testutil.SignedCall(t, alice, kindWhoAmI, 0, false, nil)
	_, err := f.disp.Submit(call)
	require.NoError(t, err)
	_, err = f.disp.Submit(call)
	assert.ErrorIs(t, err, ErrBadNonce)
	_, err = f.disp.Submit(testutil.SignedCall(t, alice, kindWhoAmI, 5, false, nil))
	assert.ErrorIs(t, err, ErrBadNonce)
}

func TestResolveOrigin(t *testing.T) {
	f := newFixture(t)
	alice := testutil.NewAccount(t)

	_, err := f.disp.Submit(testutil.SignedCall(t, alice, kindWhoAmI, 0, false, nil))
	require.NoError(t, err)
	_, err = f.disp.Submit(testutil.SignedCall(t, f.root, kindWhoAmI, 0, true, nil))
	require.NoError(t, err)
	require.Len(t, f.seen, 2)
	assert.Equal(t, core.SignedOrigin(alice.ID), f.seen[0])
	assert.Equal(t, core.RootOrigin(f.root.ID), f.seen[1])

	// sudo from a non-root signer
	_, err = f.disp.Submit(testutil.SignedCall(t, alice, kindWhoAmI, 1, true, nil))
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	// unsigned
	unsigned, err := core.NewCall(testutil.ChainID, kindWhoAmI, 0, nil)
	require.NoError(t, err)
	_, err = f.disp.Submit(unsigned)
	require.NoError(t, err)
	assert.Equal(t, core.NoneOrigin(), f.seen[2])

	unsigned.Sudo = true
	_, err = f.disp.Submit(unsigned)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	// wrong chain
	wrong, err := core.NewCall("other-chain", kindWhoAmI, 1, nil)
	require.NoError(t, err)
	wrong.Sign(alice.Priv)
	_, err = f.disp.Submit(wrong)
	assert.ErrorIs(t, err, ErrWrongChain)

	// forged signature
	forged := testutil.SignedCall(t, alice, kindWhoAmI, 1, false, nil)
	forged.Nonce = 2
	_, err = f.disp.Submit(forged)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestView(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.state.SetAccount("a", core.AccountData{Free: core.NewBalance(3)}))
	require.NoError(t, f.state.Commit())
	var got core.Balance
	require.NoError(t, f.disp.View(func(st core.State) error {
		acc, err := st.GetAccount("a")
		got = acc.Free
		return err
	}))
	assert.Equal(t, core.NewBalance(3), got)
}

func TestApply_SubscriberMayView(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.state.SetTotalIssuance(core.NewBalance(42)))
	require.NoError(t, f.state.Commit())

	var seen core.Balance
	em := events.NewEmitter(zerolog.Nop())
	em.Subscribe(events.EventCallApplied, func(events.Event) {
		_ = f.disp.View(func(st core.State) error {
			total, _, err := st.TotalIssuance()
			seen = total
			return err
		})
	})
	f.disp.emitter = em

	done := make(chan error, 1)
	go func() {
		_, err := f.disp.Apply(core.NoneOrigin(), &core.Call{ChainID: testutil.ChainID, Kind: kindWhoAmI})
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Apply did not return while a subscriber read state")
	}
	assert.Equal(t, core.NewBalance(42), seen)
}

func TestSubmit_UnregisteredKindsShareOneMetricSeries(t *testing.T) {
	f := newFixture(t)
	callsBefore := promtest.CollectAndCount(prometheusCalls)
	durationBefore := promtest.CollectAndCount(prometheusCallDuration)
	unknownBefore := promtest.ToFloat64(prometheusCalls.WithLabelValues(unknownKind, "failed"))

	for i := 0; i < 50; i++ {
		call, err := core.NewCall(testutil.ChainID, core.CallKind(fmt.Sprintf("junk-%d", i)), 0, nil)
		require.NoError(t, err)
		_, err = f.disp.Submit(call)
		assert.ErrorIs(t, err, ErrUnknownCall)
	}

	assert.LessOrEqual(t, promtest.CollectAndCount(prometheusCalls), callsBefore+1)
	assert.LessOrEqual(t, promtest.CollectAndCount(prometheusCallDuration), durationBefore+1)
	assert.Equal(t, unknownBefore+50, promtest.ToFloat64(prometheusCalls.WithLabelValues(unknownKind, "failed")))
}
