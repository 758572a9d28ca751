// Package ledger implements the bounded-supply token operations: mint,
// transfer, burn and the total issuance query.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/dispatch"
	"github.com/tolelom/tolledger/events"
	"github.com/tolelom/tolledger/imbalance"
)

// AccountLookup resolves a transfer destination.
type AccountLookup interface {
	Lookup(source string) (core.AccountID, error)
}

// Ledger holds the supply policy. All state comes in through the
// dispatch.Context of each call.
type Ledger struct {
	maxSupply core.Balance
	seed      imbalance.SeedPolicy
	lookup    AccountLookup
	log       zerolog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithSeedPolicy(p imbalance.SeedPolicy) Option {
	return func(l *Ledger) { l.seed = p }
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log.With().Str("component", "ledger").Logger() }
}

// New creates a Ledger capped at maxSupply.
func New(maxSupply core.Balance, lookup AccountLookup, opts ...Option) *Ledger {
	l := &Ledger{
		maxSupply: maxSupply,
		lookup:    lookup,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) MaxTokenSupply() core.Balance { return l.maxSupply }

func (l *Ledger) run(state core.State, fn func(*Currency) error) error {
	return imbalance.Run(state, func(s *imbalance.Scope) error {
		return fn(NewCurrency(state, s))
	}, imbalance.WithSeedPolicy(l.seed, l.maxSupply))
}

// Mint creates amount of new supply in beneficiary's account. Root only.
func (l *Ledger) Mint(ctx *dispatch.Context, amount core.Balance, beneficiary core.AccountID) error {
	if err := ctx.Origin.EnsureRoot(); err != nil {
		return err
	}
	if beneficiary == "" {
		return fmt.Errorf("%w: beneficiary required", ErrInvalidPayload)
	}
	total, err := TotalIssuance(ctx.State)
	if err != nil {
		return err
	}
	newTotal, ok := total.CheckedAdd(amount)
	if !ok {
		return ErrMintTypeOverflow
	}
	if newTotal.Gt(l.maxSupply) {
		return fmt.Errorf("%w: %s + %s > %s", ErrMintCausingTotalSupplyOverflow, total, amount, l.maxSupply)
	}

	// the deposit's positive imbalance raises the total when the scope closes
	err = l.run(ctx.State, func(cur *Currency) error {
		_, err := cur.Deposit(beneficiary, amount)
		return err
	})
	if err != nil {
		return err
	}

	ctx.DepositEvent(events.EventMintedNewSupply, map[string]any{
		"amount":      amount.String(),
		"beneficiary": string(beneficiary),
	})
	l.log.Debug().Str("amount", amount.String()).Str("beneficiary", string(beneficiary)).Msg("minted")
	return nil
}

// Transfer moves amount from the signed caller to the account named by to.
func (l *Ledger) Transfer(ctx *dispatch.Context, to string, amount core.Balance) error {
	from, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}
	dest, err := l.lookup.Lookup(to)
	if err != nil {
		if errors.Is(err, ErrCannotLookup) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrCannotLookup, err)
	}

	err = l.run(ctx.State, func(cur *Currency) error {
		debit, err := cur.Withdraw(from, amount)
		if err != nil {
			return err
		}
		credit, err := cur.Deposit(dest, amount)
		if err != nil {
			return err
		}
		if res := debit.Offset(credit); !res.IsNone() {
			return ErrImbalanceMismatch
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx.DepositEvent(events.EventTransferSuccess, map[string]any{
		"from":   string(from),
		"to":     string(dest),
		"amount": amount.String(),
	})
	return nil
}

// Burn destroys amount of the signed caller's free balance.
func (l *Ledger) Burn(ctx *dispatch.Context, amount core.Balance) error {
	who, err := ctx.Origin.EnsureSigned()
	if err != nil {
		return err
	}
	err = l.run(ctx.State, func(cur *Currency) error {
		_, err := cur.Withdraw(who, amount)
		return err
	})
	if err != nil {
		return err
	}
	ctx.DepositEvent(events.EventBurned, map[string]any{
		"who":    string(who),
		"amount": amount.String(),
	})
	return nil
}

// TotalIssuance returns the current total and publishes it as an event.
// Any signed caller may ask.
func (l *Ledger) TotalIssuance(ctx *dispatch.Context) (core.Balance, error) {
	if _, err := ctx.Origin.EnsureSigned(); err != nil {
		return core.Balance{}, err
	}
	total, err := TotalIssuance(ctx.State)
	if err != nil {
		return core.Balance{}, err
	}
	ctx.DepositEvent(events.EventTotalIssued, map[string]any{"value": total.String()})
	return total, nil
}

// Register binds the ledger's call kinds to reg.
func (l *Ledger) Register(reg *dispatch.Registry) {
	reg.Register(core.CallMint, func(ctx *dispatch.Context, payload json.RawMessage) error {
		var p core.MintPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		return l.Mint(ctx, p.Amount, p.Beneficiary)
	})
	reg.Register(core.CallTransfer, func(ctx *dispatch.Context, payload json.RawMessage) error {
		var p core.TransferPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		return l.Transfer(ctx, p.To, p.Amount)
	})
	reg.Register(core.CallBurn, func(ctx *dispatch.Context, payload json.RawMessage) error {
		var p core.BurnPayload
		if err := decode(payload, &p); err != nil {
			return err
		}
		return l.Burn(ctx, p.Amount)
	})
	reg.Register(core.CallTotalIssuance, func(ctx *dispatch.Context, _ json.RawMessage) error {
		_, err := l.TotalIssuance(ctx)
		return err
	})
}

func decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
