package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/dispatch"
	"github.com/tolelom/tolledger/internal/testutil"
	"github.com/tolelom/tolledger/ledger"
	"github.com/tolelom/tolledger/lookup"
	"github.com/tolelom/tolledger/wallet"
)

type testNode struct {
	t    *testing.T
	srv  *httptest.Server
	root *wallet.Wallet
}

func newTestNode(t *testing.T, token string) *testNode {
	state, _ := testutil.NewState()
	root, err := wallet.Generate(testutil.ChainID)
	require.NoError(t, err)

	l := ledger.New(core.NewBalance(1000), lookup.Identity{})
	reg := dispatch.NewRegistry()
	l.Register(reg)
	d := dispatch.New(state, reg, nil, dispatch.Options{
		ChainID:      testutil.ChainID,
		RootAccounts: []core.AccountID{root.Account()},
	}, zerolog.Nop())

	s := NewServer("127.0.0.1:0", NewHandler(d, l.MaxTokenSupply()), token, zerolog.Nop())
	ts := httptest.NewServer(s.HTTPHandler())
	t.Cleanup(ts.Close)
	return &testNode{t: t, srv: ts, root: root}
}

type rawResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func (n *testNode) call(token, method string, params any) rawResponse {
	n.t.Helper()
	p, err := json.Marshal(params)
	require.NoError(n.t, err)
	body, err := json.Marshal(Request{JSONRPC: "2.0", ID: 1, Method: method, Params: p})
	require.NoError(n.t, err)

	req, err := http.NewRequest(http.MethodPost, n.srv.URL, bytes.NewReader(body))
	require.NoError(n.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(n.t, err)
	defer resp.Body.Close()

	var out rawResponse
	require.NoError(n.t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRPC_MintTransferQuery(t *testing.T) {
	n := newTestNode(t, "")
	alice, err := wallet.Generate(testutil.ChainID)
	require.NoError(t, err)
	bob, err := wallet.Generate(testutil.ChainID)
	require.NoError(t, err)

	mint, err := n.root.Mint(alice.Account(), core.NewBalance(600), 0)
	require.NoError(t, err)
	res := n.call("", "submitCall", mint)
	require.Nil(t, res.Error)
	var receipt dispatch.Receipt
	require.NoError(t, json.Unmarshal(res.Result, &receipt))
	assert.Equal(t, mint.ID, receipt.CallID)
	assert.NotEmpty(t, receipt.StateRoot)

	over, err := n.root.Mint(bob.Account(), core.NewBalance(500), 1)
	require.NoError(t, err)
	res = n.call("", "submitCall", over)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeCallFailed, res.Error.Code)
	assert.Equal(t, "MintCausingTotalSupplyOverflow", res.Error.Data)

	tr, err := alice.Transfer(string(bob.Account()), core.NewBalance(600), 0)
	require.NoError(t, err)
	require.Nil(t, n.call("", "submitCall", tr).Error)

	res = n.call("", "getBalance", map[string]string{"account": string(bob.Account())})
	require.Nil(t, res.Error)
	var bal struct {
		Balance core.Balance `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &bal))
	assert.Equal(t, core.NewBalance(600), bal.Balance)

	res = n.call("", "getTotalIssuance", nil)
	require.Nil(t, res.Error)
	var ti struct {
		Total core.Balance `json:"total_issuance"`
		Max   core.Balance `json:"max_supply"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &ti))
	assert.Equal(t, core.NewBalance(600), ti.Total)
	assert.Equal(t, core.NewBalance(1000), ti.Max)

	res = n.call("", "getNonce", map[string]string{"account": string(alice.Account())})
	require.Nil(t, res.Error)
	assert.JSONEq(t, `{"account":"`+string(alice.Account())+`","nonce":1}`, string(res.Result))
}

func TestRPC_Rejections(t *testing.T) {
	n := newTestNode(t, "")
	mallory, err := wallet.Generate(testutil.ChainID)
	require.NoError(t, err)

	// sudo from a non-root account
	mint, err := mallory.Mint(mallory.Account(), core.NewBalance(1), 0)
	require.NoError(t, err)
	res := n.call("", "submitCall", mint)
	require.NotNil(t, res.Error)
	assert.Equal(t, "NotAuthorized", res.Error.Data)

	// wrong nonce
	tr, err := mallory.Transfer(string(mallory.Account()), core.NewBalance(0), 7)
	require.NoError(t, err)
	res = n.call("", "submitCall", tr)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeCallRejected, res.Error.Code)
	assert.Equal(t, "BadNonce", res.Error.Data)

	// other chain
	other, err := wallet.Generate("elsewhere")
	require.NoError(t, err)
	q, err := other.QueryTotalIssuance(0)
	require.NoError(t, err)
	res = n.call("", "submitCall", q)
	require.NotNil(t, res.Error)
	assert.Equal(t, "WrongChain", res.Error.Data)

	// tampered payload
	tr, err = mallory.Transfer(string(mallory.Account()), core.NewBalance(0), 0)
	require.NoError(t, err)
	tr.Payload = json.RawMessage(`{"to":"x","amount":"1"}`)
	tr.ID = tr.Hash()
	res = n.call("", "submitCall", tr)
	require.NotNil(t, res.Error)
	assert.Equal(t, "BadSignature", res.Error.Data)

	res = n.call("", "noSuchMethod", nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeMethodNotFound, res.Error.Code)

	res = n.call("", "getBalance", map[string]string{})
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeInvalidParams, res.Error.Code)
}

func TestRPC_AuthToken(t *testing.T) {
	n := newTestNode(t, "s3cret")
	res := n.call("", "getMaxTokenSupply", nil)
	require.NotNil(t, res.Error)
	assert.Equal(t, CodeUnauthorized, res.Error.Code)

	res = n.call("s3cret", "getMaxTokenSupply", nil)
	require.Nil(t, res.Error)
	assert.JSONEq(t, `"1000"`, string(res.Result))
}

func TestRPC_Metrics(t *testing.T) {
	n := newTestNode(t, "")
	resp, err := http.Get(n.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tolledger_total_issuance")

	resp2, err := http.Get(n.srv.URL + "/")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}
