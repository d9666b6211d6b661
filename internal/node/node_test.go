package node

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avatarnftme/anme-mint/config"
	"github.com/avatarnftme/anme-mint/internal/minter"
	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

const (
	nativeFeed = "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419"
	usdcFeed   = "0x8fffffd4afb6115b954bd326cbe7b4ba576818f6"
	daiFeed    = "0xaed0c38402a5d19df6e4c03f4e2dced6e29c1ee9"
	usdc       = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	admin      = "0x00000000000000000000000000000000000ad111"
	collector  = "0x0000000000000000000000000000000000c011ec"
	spender    = "0x00000000000000000000000000000000000a4e00"
)

var alice = types.MustParseAddress("0x00000000000000000000000000000000000a11ce")

func testConfig(t *testing.T, dataDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.RPC.Port = 0
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Mint.Threshold = 2
	cfg.Mint.Collector = collector
	cfg.Mint.Spender = spender
	cfg.Mint.Admin = admin
	cfg.Oracle.NativeFeed = nativeFeed
	cfg.Oracle.Static = nativeFeed + ":200000000000:8," + usdcFeed + ":100000000:8"
	cfg.Currencies = []string{usdc + ":" + usdcFeed}
	cfg.Contract.Webpage = "https://www.avatarnft.me"
	cfg.Ledger.Dev = true
	cfg.Log.Level = "error"
	return cfg
}

func attrs() registry.Attributes {
	return registry.Attributes{
		FirstName:    "Jane",
		LastName:     "Doe",
		Website:      "https://www.avatarnft.me",
		BodyType:     "Regular",
		OutfitGender: "Female",
		SkinTone:     "Dark",
		CreatedAt:    "2021-08-01T00:00:00.000Z",
		ImageURI:     "https://www.avatarnft.me/jane.png",
	}
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func mintNative(t *testing.T, n *Node, amount *big.Int) *minter.Result {
	t.Helper()
	if err := n.Ledger().Credit(types.NativeCurrency, alice, amount); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	res, err := n.Minter().MintNative(context.Background(), minter.NativeRequest{
		Owner:      alice,
		Amount:     amount,
		Attributes: attrs(),
	})
	if err != nil {
		t.Fatalf("MintNative: %v", err)
	}
	return res
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for incomplete config")
	}
}

func TestNode_StartStop(t *testing.T) {
	n, err := New(testConfig(t, t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer n.Stop()

	if n.RPCAddr() == "" {
		t.Fatal("RPC should be listening")
	}
	if n.MetricsAddr() == "" {
		t.Fatal("metrics should be listening")
	}

	var info map[string]interface{}
	client := rpcclient.New("http://" + n.RPCAddr())
	if err := client.Call("mint_getInfo", nil, &info); err != nil {
		t.Fatalf("mint_getInfo: %v", err)
	}
	if info["current_fee"] != eth(50).String() {
		t.Fatalf("current_fee = %v, want %s", info["current_fee"], eth(50))
	}
	if got := n.Minter().Contract().WebpageURI(); got != "https://www.avatarnft.me" {
		t.Fatalf("webpage = %q", got)
	}
	if len(n.Minter().Currencies()) != 1 {
		t.Fatalf("currencies = %d, want 1", len(n.Minter().Currencies()))
	}
}

func TestNode_RPCDisabled(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.RPC.Enabled = false
	cfg.Metrics.Enabled = false
	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n.RPCAddr() != "" || n.MetricsAddr() != "" {
		t.Fatal("listeners should be disabled")
	}
}

func TestNode_RestartKeepsState(t *testing.T) {
	dir := t.TempDir()

	n, err := New(testConfig(t, dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	first := mintNative(t, n, eth(50))
	second := mintNative(t, n, eth(50))
	third := mintNative(t, n, eth(100))
	if first.ID != 0 || second.ID != 1 || third.ID != 2 {
		t.Fatalf("ids = %d %d %d", first.ID, second.ID, third.ID)
	}
	if !second.FeeIncremented {
		t.Fatal("second mint should double the fee")
	}
	n.Stop()

	n, err = New(testConfig(t, dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer n.Stop()

	if got := n.Minter().Count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if got := n.Minter().Fee(); got.Cmp(eth(100)) != 0 {
		t.Fatalf("fee = %s, want %s", got, eth(100))
	}
	owner, err := n.Minter().Owner(2)
	if err != nil {
		t.Fatalf("Owner: %v", err)
	}
	if owner != alice {
		t.Fatalf("owner = %s, want %s", owner, alice)
	}
	it, err := n.Minter().Item(0)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if it.Attributes.FirstName != "Jane" {
		t.Fatalf("first name = %q", it.Attributes.FirstName)
	}

	// One more mint closes the second window.
	if res := mintNative(t, n, eth(100)); !res.FeeIncremented || res.NewFee.Cmp(eth(200)) != 0 {
		t.Fatalf("fourth mint: incremented=%v fee=%s", res.FeeIncremented, res.NewFee)
	}
}

func TestNode_ThresholdChangeRejected(t *testing.T) {
	dir := t.TempDir()
	n, err := New(testConfig(t, dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mintNative(t, n, eth(50))
	n.Stop()

	cfg := testConfig(t, dir)
	cfg.Mint.Threshold = 5
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error when threshold differs from stored state")
	}
}

func TestNode_RestartKeepsAdminFeed(t *testing.T) {
	dir := t.TempDir()
	cur := types.MustParseAddress(usdc)

	n, err := New(testConfig(t, dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = n.Minter().AddCurrencySupport(context.Background(), types.MustParseAddress(admin), cur, types.MustParseFeedID(daiFeed))
	if err != nil {
		t.Fatalf("AddCurrencySupport: %v", err)
	}
	n.Stop()

	n, err = New(testConfig(t, dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer n.Stop()

	feed, err := n.Minter().LookupFeed(cur)
	if err != nil {
		t.Fatalf("LookupFeed: %v", err)
	}
	if feed != types.MustParseFeedID(daiFeed) {
		t.Fatalf("feed = %s, want the administrator's %s", feed, daiFeed)
	}
}

func TestNode_Quote(t *testing.T) {
	n, err := New(testConfig(t, t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()

	native, err := n.Quote(context.Background(), "native")
	if err != nil {
		t.Fatalf("Quote native: %v", err)
	}
	if native != eth(50).String() {
		t.Fatalf("native quote = %s", native)
	}
	// 50 native at 2000 each, priced in a currency worth 1.
	got, err := n.Quote(context.Background(), usdc)
	if err != nil {
		t.Fatalf("Quote usdc: %v", err)
	}
	if got != "100000000000000000000000" {
		t.Fatalf("usdc quote = %s", got)
	}
	if _, err := n.Quote(context.Background(), "0x1234"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNode_LogFileDefault(t *testing.T) {
	dir := t.TempDir()
	n, err := New(testConfig(t, dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n.Stop()
	if _, err := os.Stat(filepath.Join(dir, "logs", "anmed.log")); err != nil {
		t.Fatalf("log file: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x"); got != filepath.Join(home, "x") {
		t.Fatalf("expandHome = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Fatalf("expandHome = %q", got)
	}
}

func TestParseCurrency(t *testing.T) {
	for _, s := range []string{"", "native", " NATIVE "} {
		got, err := parseCurrency(s)
		if err != nil || got != types.NativeCurrency {
			t.Fatalf("parseCurrency(%q) = %s, %v", s, got, err)
		}
	}
	got, err := parseCurrency(usdc)
	if err != nil || !strings.EqualFold(got.String(), usdc) {
		t.Fatalf("parseCurrency(usdc) = %s, %v", got, err)
	}
}
