package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/avatarnftme/anme-mint/internal/adminkey"
	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

// fakeDaemon answers JSON-RPC calls from a handler table and records them.
type fakeDaemon struct {
	mu       sync.Mutex
	calls    []rpc.Request
	handlers map[string]func(params json.RawMessage) (interface{}, *rpc.Error)
}

func newFakeDaemon(t *testing.T) (*fakeDaemon, string) {
	t.Helper()
	d := &fakeDaemon{handlers: map[string]func(json.RawMessage) (interface{}, *rpc.Error){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.mu.Lock()
		d.calls = append(d.calls, req)
		h := d.handlers[req.Method]
		d.mu.Unlock()

		resp := rpc.Response{JSONRPC: "2.0", ID: req.ID}
		if h == nil {
			resp.Error = &rpc.Error{Code: rpc.CodeMethodNotFound, Message: "method not found"}
		} else {
			resp.Result, resp.Error = h(req.Params)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return d, srv.URL
}

func (d *fakeDaemon) handle(method string, h func(json.RawMessage) (interface{}, *rpc.Error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

func (d *fakeDaemon) methods() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.Method
	}
	return out
}

func run(t *testing.T, url, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--rpc", url, "--datadir", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

// importKey stores a fresh key under dir and returns it.
func importKey(t *testing.T, dir string) *crypto.PrivateKey {
	t.Helper()
	t.Setenv(PasswordEnv, testPassword)
	mnemonic, err := adminkey.GenerateMnemonic()
	require.NoError(t, err)
	_, err = run(t, "http://127.0.0.1:1", dir, mnemonic+"\n", "key", "import")
	require.NoError(t, err)
	key, err := adminkey.FromMnemonic(mnemonic, "", 0)
	require.NoError(t, err)
	return key
}

// openSigned verifies a signed envelope for method and decodes its body
// into target, as the daemon does.
func openSigned(method string, params json.RawMessage, signer types.Address, target interface{}) *rpc.Error {
	var p rpc.SignedParam
	if err := json.Unmarshal(params, &p); err != nil {
		return &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}
	got, err := adminkey.Verify(method, p.Request, p.Auth)
	if err != nil || got != signer {
		return &rpc.Error{Code: rpc.CodeUnauthorized, Message: "bad signer"}
	}
	if err := json.Unmarshal(p.Request, target); err != nil {
		return &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func testInfo() rpc.InfoResult {
	return rpc.InfoResult{
		Name:               "AvatarNftMe",
		Symbol:             "ANME",
		Count:              7,
		CurrentFee:         "100000000000000000000",
		InitialPrice:       "50000000000000000000",
		IncrementThreshold: 50,
		Spender:            "0x00000000000000000000000000000000000a4e00",
	}
}

func TestKey_NewAndAddress(t *testing.T) {
	t.Setenv(PasswordEnv, testPassword)
	dir := t.TempDir()

	out, err := run(t, "http://127.0.0.1:1", dir, "", "key", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "Address:")
	assert.Contains(t, out, "mnemonic")

	addr, err := run(t, "http://127.0.0.1:1", dir, "", "key", "address")
	require.NoError(t, err)
	assert.Contains(t, out, strings.TrimSpace(addr))

	_, err = run(t, "http://127.0.0.1:1", dir, "", "key", "new")
	require.ErrorIs(t, err, adminkey.ErrKeyExists)
}

func TestKey_Import(t *testing.T) {
	t.Setenv(PasswordEnv, testPassword)
	dir := t.TempDir()
	mnemonic, err := adminkey.GenerateMnemonic()
	require.NoError(t, err)
	want, err := adminkey.FromMnemonic(mnemonic, "", 3)
	require.NoError(t, err)

	out, err := run(t, "http://127.0.0.1:1", dir, mnemonic+"\n", "key", "import", "--index", "3")
	require.NoError(t, err)
	assert.Contains(t, out, want.Address().String())

	_, err = run(t, "http://127.0.0.1:1", t.TempDir(), "not a mnemonic\n", "key", "import")
	require.ErrorIs(t, err, adminkey.ErrInvalidMnemonic)
}

func TestAdminCall_Signed(t *testing.T) {
	dir := t.TempDir()
	key := importKey(t, dir)

	d, url := newFakeDaemon(t)
	var got rpc.AddCurrencyRequest
	d.handle("currency_add", func(params json.RawMessage) (interface{}, *rpc.Error) {
		if rpcErr := openSigned("currency_add", params, key.Address(), &got); rpcErr != nil {
			return nil, rpcErr
		}
		return rpc.OKResult{OK: true}, nil
	})

	out, err := run(t, url, dir, "", "currency", "add",
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"0x8fffffd4afb6115b954bd326cbe7b4ba576818f6")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", got.Currency)
	assert.Equal(t, "0x8fffffd4afb6115b954bd326cbe7b4ba576818f6", got.Feed)

	// Rejections from the daemon surface as errors.
	d.handle("contract_setWebpage", func(params json.RawMessage) (interface{}, *rpc.Error) {
		return nil, &rpc.Error{Code: rpc.CodeUnauthorized, Message: "unauthorized"}
	})
	_, err = run(t, url, dir, "", "contract", "set-webpage", "https://www.avatarnft.me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")

	t.Setenv(PasswordEnv, "wrong")
	_, err = run(t, url, dir, "", "contract", "set-webpage", "https://www.avatarnft.me")
	require.ErrorIs(t, err, adminkey.ErrWrongPassword)
}

func TestMintNative_DefaultsToCurrentFee(t *testing.T) {
	dir := t.TempDir()
	key := importKey(t, dir)
	d, url := newFakeDaemon(t)
	d.handle("mint_getInfo", func(json.RawMessage) (interface{}, *rpc.Error) {
		return testInfo(), nil
	})
	var got rpc.MintNativeParam
	d.handle("mint_native", func(params json.RawMessage) (interface{}, *rpc.Error) {
		if rpcErr := openSigned("mint_native", params, key.Address(), &got); rpcErr != nil {
			return nil, rpcErr
		}
		return rpc.MintResult{
			ID:             7,
			Receipt:        rpc.ReceiptResult{ID: "receipt_01", Amount: got.Amount, Required: got.Amount},
			FeeIncremented: true,
			NextFee:        "200000000000000000000",
		}, nil
	})

	out, err := run(t, url, dir, "", "mint", "native",
		"--first-name", "Jane",
		"--body-type", "Regular",
		"--outfit-gender", "Female",
		"--skin-tone", "Dark",
		"--image", "https://www.avatarnft.me/jane.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"mint_getInfo", "mint_native"}, d.methods())
	assert.Equal(t, "100000000000000000000", got.Amount)
	assert.Equal(t, key.Address().String(), got.Owner)
	assert.Equal(t, "Jane", got.Attributes.FirstName)
	assert.NotEmpty(t, got.Attributes.CreatedAt)
	assert.Contains(t, out, "Minted item 7")
	assert.Contains(t, out, "Fee doubled to 200")
}

func TestMintNative_ExplicitAmountAndBadAttributes(t *testing.T) {
	dir := t.TempDir()
	key := importKey(t, dir)
	d, url := newFakeDaemon(t)
	var got rpc.MintNativeParam
	d.handle("mint_native", func(params json.RawMessage) (interface{}, *rpc.Error) {
		if rpcErr := openSigned("mint_native", params, key.Address(), &got); rpcErr != nil {
			return nil, rpcErr
		}
		return rpc.MintResult{ID: 0}, nil
	})
	attrs := []string{
		"--owner", key.Address().String(),
		"--first-name", "Jane",
		"--body-type", "Regular",
		"--outfit-gender", "Female",
		"--skin-tone", "Dark",
		"--image", "https://www.avatarnft.me/jane.png",
	}

	_, err := run(t, url, dir, "", append([]string{"mint", "native", "--amount", "0.5"}, attrs...)...)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", got.Amount)

	_, err = run(t, url, dir, "", "mint", "native", "--owner", key.Address().String())
	require.Error(t, err)
	assert.Len(t, d.methods(), 1, "invalid attributes must not reach the daemon")
}

func TestMintNative_OwnerMustBeKey(t *testing.T) {
	dir := t.TempDir()
	importKey(t, dir)
	d, url := newFakeDaemon(t)

	_, err := run(t, url, dir, "", "mint", "native",
		"--amount", "1",
		"--owner", "0x00000000000000000000000000000000000a11ce",
		"--first-name", "Jane",
		"--body-type", "Regular",
		"--outfit-gender", "Female",
		"--skin-tone", "Dark",
		"--image", "https://www.avatarnft.me/jane.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not the address of key")
	assert.Empty(t, d.methods())
}

func TestMintCurrency_UsesQuote(t *testing.T) {
	dir := t.TempDir()
	key := importKey(t, dir)
	d, url := newFakeDaemon(t)
	d.handle("mint_quote", func(json.RawMessage) (interface{}, *rpc.Error) {
		return rpc.QuoteResult{Currency: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Amount: "200000000", Fee: "100"}, nil
	})
	d.handle("mint_withCurrency", func(params json.RawMessage) (interface{}, *rpc.Error) {
		var p rpc.MintCurrencyParam
		if rpcErr := openSigned("mint_withCurrency", params, key.Address(), &p); rpcErr != nil {
			return nil, rpcErr
		}
		if p.Amount != "200000000" {
			return nil, &rpc.Error{Code: rpc.CodePaymentRejected, Message: "wrong amount", Data: "InsufficientPayment"}
		}
		return nil, &rpc.Error{Code: rpc.CodePaymentRejected, Message: "insufficient allowance", Data: "InsufficientAllowance"}
	})

	_, err := run(t, url, dir, "", "mint", "currency",
		"--currency", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"--first-name", "Jane",
		"--body-type", "Regular",
		"--outfit-gender", "Female",
		"--skin-tone", "Dark",
		"--image", "https://www.avatarnft.me/jane.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient allowance")
	assert.Equal(t, []string{"mint_quote", "mint_withCurrency"}, d.methods())
}

func TestInfoAndQuote(t *testing.T) {
	d, url := newFakeDaemon(t)
	d.handle("mint_getInfo", func(json.RawMessage) (interface{}, *rpc.Error) {
		return testInfo(), nil
	})
	d.handle("mint_quote", func(params json.RawMessage) (interface{}, *rpc.Error) {
		var p rpc.CurrencyParam
		_ = json.Unmarshal(params, &p)
		return rpc.QuoteResult{Currency: p.Currency, Amount: "42", Fee: "100000000000000000000"}, nil
	})

	out, err := run(t, url, t.TempDir(), "", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "AvatarNftMe (ANME)")
	assert.Contains(t, out, "Current fee:  100\n")

	out, err = run(t, url, t.TempDir(), "", "quote", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	require.NoError(t, err)
	assert.Equal(t, "42 0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48 (fee 100)\n", out)

	out, err = run(t, url, t.TempDir(), "", "--json", "info")
	require.NoError(t, err)
	var decoded rpc.InfoResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, testInfo(), decoded)
}

func TestLedgerApprove_DefaultsSpender(t *testing.T) {
	d, url := newFakeDaemon(t)
	d.handle("mint_getInfo", func(json.RawMessage) (interface{}, *rpc.Error) {
		return testInfo(), nil
	})
	var got rpc.LedgerApproveParam
	d.handle("ledger_approve", func(params json.RawMessage) (interface{}, *rpc.Error) {
		_ = json.Unmarshal(params, &got)
		return rpc.BalanceResult{Currency: got.Currency, Account: got.Owner, Balance: "0", Allowance: got.Amount}, nil
	})

	out, err := run(t, url, t.TempDir(), "", "ledger", "approve",
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"0x00000000000000000000000000000000000a11ce",
		"500")
	require.NoError(t, err)
	assert.Equal(t, testInfo().Spender, got.Spender)
	assert.Contains(t, out, "Allowance: 500")
}

func TestItem_NotFound(t *testing.T) {
	d, url := newFakeDaemon(t)
	d.handle("item_get", func(json.RawMessage) (interface{}, *rpc.Error) {
		return nil, &rpc.Error{Code: rpc.CodeNotFound, Message: "unknown item 9"}
	})
	_, err := run(t, url, t.TempDir(), "", "item", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown item 9")

	_, err = run(t, url, t.TempDir(), "", "item", "x")
	require.Error(t, err)
}
