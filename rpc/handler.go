package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/dispatch"
	"github.com/tolelom/tolledger/ledger"
)

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	disp      *dispatch.Dispatcher
	maxSupply core.Balance
}

// NewHandler creates an RPC Handler.
func NewHandler(disp *dispatch.Dispatcher, maxSupply core.Balance) *Handler {
	return &Handler{disp: disp, maxSupply: maxSupply}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	switch req.Method {
	case "submitCall":
		return h.submitCall(req)

	case "getAccount":
		return h.getAccount(req)

	case "getBalance":
		return h.getBalance(req)

	case "getNonce":
		return h.getNonce(req)

	case "getTotalIssuance":
		return h.getTotalIssuance(req)

	case "getMaxTokenSupply":
		return okResponse(req.ID, h.maxSupply)

	case "getStateRoot":
		var root string
		_ = h.disp.View(func(st core.State) error {
			root = st.ComputeRoot()
			return nil
		})
		return okResponse(req.ID, map[string]any{"state_root": root})

	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (h *Handler) submitCall(req Request) Response {
	var call core.Call
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
	}
	if call.Hash() != call.ID {
		return errResponse(req.ID, CodeInvalidParams, "call id does not match its contents")
	}
	receipt, err := h.disp.Submit(&call)
	if err != nil {
		return callError(req.ID, err)
	}
	return okResponse(req.ID, receipt)
}

func callError(id any, err error) Response {
	code := CodeCallFailed
	switch {
	case errors.Is(err, dispatch.ErrWrongChain),
		errors.Is(err, dispatch.ErrBadSignature),
		errors.Is(err, dispatch.ErrBadNonce):
		code = CodeCallRejected
	}
	resp := errResponse(id, code, err.Error())
	resp.Error.Data = errorKind(err)
	return resp
}

var errorKinds = []struct {
	err  error
	name string
}{
	{ledger.ErrNotAuthorized, "NotAuthorized"},
	{ledger.ErrMintTypeOverflow, "MintTypeOverflow"},
	{ledger.ErrMintCausingTotalSupplyOverflow, "MintCausingTotalSupplyOverflow"},
	{ledger.ErrInsufficientFunds, "InsufficientFunds"},
	{ledger.ErrCannotLookup, "CannotLookup"},
	{ledger.ErrInvalidPayload, "InvalidPayload"},
	{dispatch.ErrWrongChain, "WrongChain"},
	{dispatch.ErrBadSignature, "BadSignature"},
	{dispatch.ErrBadNonce, "BadNonce"},
	{dispatch.ErrUnknownCall, "UnknownCall"},
}

func errorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}

func accountParam(req Request) (core.AccountID, *Response) {
	var params struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		resp := errResponse(req.ID, CodeInvalidParams, err.Error())
		return "", &resp
	}
	if params.Account == "" {
		resp := errResponse(req.ID, CodeInvalidParams, "account is required")
		return "", &resp
	}
	return core.AccountID(params.Account), nil
}

func (h *Handler) getAccount(req Request) Response {
	id, bad := accountParam(req)
	if bad != nil {
		return *bad
	}
	var (
		acc   core.AccountData
		nonce uint64
	)
	err := h.disp.View(func(st core.State) error {
		var err error
		if acc, err = st.GetAccount(id); err != nil {
			return err
		}
		nonce, err = st.GetNonce(id)
		return err
	})
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{
		"account": id,
		"free":    acc.Free,
		"locked":  acc.Locked,
		"total":   acc.Total(),
		"nonce":   nonce,
	})
}

func (h *Handler) getBalance(req Request) Response {
	id, bad := accountParam(req)
	if bad != nil {
		return *bad
	}
	var free core.Balance
	err := h.disp.View(func(st core.State) error {
		var err error
		free, err = ledger.FreeBalance(st, id)
		return err
	})
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"account": id, "balance": free})
}

func (h *Handler) getNonce(req Request) Response {
	id, bad := accountParam(req)
	if bad != nil {
		return *bad
	}
	var nonce uint64
	err := h.disp.View(func(st core.State) error {
		var err error
		nonce, err = st.GetNonce(id)
		return err
	})
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"account": id, "nonce": nonce})
}

func (h *Handler) getTotalIssuance(req Request) Response {
	var (
		total       core.Balance
		initialized bool
	)
	err := h.disp.View(func(st core.State) error {
		var err error
		total, initialized, err = st.TotalIssuance()
		return err
	})
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{
		"total_issuance": total,
		"initialized":    initialized,
		"max_supply":     h.maxSupply,
	})
}
