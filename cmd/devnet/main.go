// Command devnet boots a throwaway issuance daemon and drives it end to end.
//
// Usage: go run ./cmd/devnet/
//
// It generates an admin key, starts an in-process daemon on the development
// ledger with static prices, mints a run of items in the native currency,
// registers an alternate currency through a signed admin call, mints with it,
// and verifies the final count and fee. Ctrl+C for early shutdown.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/avatarnftme/anme-mint/config"
	"github.com/avatarnftme/anme-mint/internal/adminkey"
	alog "github.com/avatarnftme/anme-mint/internal/log"
	"github.com/avatarnftme/anme-mint/internal/node"
	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

const (
	numMints  = 7
	threshold = 3

	nativeFeed = "0x5f4ec3df9cbd43714fe2740f5e3616155c5b8419"
	usdcFeed   = "0x8fffffd4afb6115b954bd326cbe7b4ba576818f6"
	usdc       = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	collector  = "0x0000000000000000000000000000000000c011ec"
	spender    = "0x00000000000000000000000000000000000a4e00"
)

func main() {
	alog.Init("info", false, "")
	logger := alog.WithComponent("devnet")

	logger.Info().Msg("=== ANME Local Devnet ===")

	// ── Phase 1: Identities + config ────────────────────────────────────

	adminKey, aliceKey, bobKey := mustKey(), mustKey(), mustKey()
	defer adminKey.Zero()
	defer aliceKey.Zero()
	defer bobKey.Zero()
	alice, bob := aliceKey.Address().String(), bobKey.Address().String()

	dataDir, err := os.MkdirTemp("", "anme-devnet-")
	if err != nil {
		logger.Fatal().Err(err).Msg("create data dir")
	}
	defer os.RemoveAll(dataDir)

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.RPC.Port = 0
	cfg.Mint.InitialPrice = "0.1"
	cfg.Mint.Threshold = threshold
	cfg.Mint.Collector = collector
	cfg.Mint.Spender = spender
	cfg.Mint.Admin = adminKey.Address().String()
	cfg.Oracle.NativeFeed = nativeFeed
	cfg.Oracle.Static = nativeFeed + ":200000000000:8," + usdcFeed + ":100000000:8"
	cfg.Ledger.Dev = true

	logger.Info().
		Str("admin", cfg.Mint.Admin).
		Str("alice", alice).
		Str("bob", bob).
		Str("datadir", dataDir).
		Msg("Generated identities")

	// ── Phase 2: Start daemon ───────────────────────────────────────────

	if err := config.EnsureDataDirs(cfg); err != nil {
		logger.Fatal().Err(err).Msg("prepare data dir")
	}
	n, err := node.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build node")
	}
	defer n.Stop()
	if err := n.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start node")
	}
	client := rpcclient.New("http://" + n.RPCAddr())

	// ── Phase 3: Signal handling ────────────────────────────────────────

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("Shutdown signal received")
		cancel()
	}()

	// ── Phase 4: Native mints ───────────────────────────────────────────

	mustCall(ctx, client, "ledger_credit", rpc.LedgerCreditParam{Account: alice, Amount: "1000000000000000000000"}, nil)

	minted := 0
	for i := 0; i < numMints; i++ {
		if ctx.Err() != nil {
			logger.Info().Msg("Minting interrupted")
			break
		}
		var info rpc.InfoResult
		mustCall(ctx, client, "mint_getInfo", nil, &info)

		var res rpc.MintResult
		mustCall(ctx, client, "mint_native", mustSign(aliceKey, "mint_native", rpc.MintNativeParam{
			Owner:      alice,
			Amount:     info.CurrentFee,
			Attributes: avatar(i),
		}), &res)
		minted++

		ev := logger.Info().
			Uint64("id", res.ID).
			Str("paid", types.FormatUnits(mustAmount(info.CurrentFee), types.NativeDecimals))
		if res.FeeIncremented {
			ev = ev.Str("next_fee", types.FormatUnits(mustAmount(res.NextFee), types.NativeDecimals))
		}
		ev.Msg("Minted")
	}

	// ── Phase 5: Alternate currency ─────────────────────────────────────

	if ctx.Err() == nil {
		mustCall(ctx, client, "currency_add", mustSign(adminKey, "currency_add", rpc.AddCurrencyRequest{Currency: usdc, Feed: usdcFeed}), nil)
		logger.Info().Str("currency", usdc).Msg("Currency registered")

		var q rpc.QuoteResult
		mustCall(ctx, client, "mint_quote", rpc.CurrencyParam{Currency: usdc}, &q)
		mustCall(ctx, client, "ledger_credit", rpc.LedgerCreditParam{Currency: usdc, Account: bob, Amount: q.Amount}, nil)
		mustCall(ctx, client, "ledger_approve", rpc.LedgerApproveParam{Currency: usdc, Owner: bob, Spender: spender, Amount: q.Amount}, nil)

		var res rpc.MintResult
		mustCall(ctx, client, "mint_withCurrency", mustSign(bobKey, "mint_withCurrency", rpc.MintCurrencyParam{
			Currency:   usdc,
			Payer:      bob,
			Amount:     q.Amount,
			Attributes: avatar(numMints),
		}), &res)
		minted++
		logger.Info().Uint64("id", res.ID).Str("paid", q.Amount).Msg("Minted with currency")
	}

	// ── Phase 6: Verification ───────────────────────────────────────────

	var info rpc.InfoResult
	mustCall(context.Background(), client, "mint_getInfo", nil, &info)

	base := mustAmount(info.InitialPrice)
	want := new(big.Int).Lsh(base, uint(minted/threshold))
	if info.Count != uint64(minted) || mustAmount(info.CurrentFee).Cmp(want) != 0 {
		logger.Error().
			Uint64("count", info.Count).
			Str("fee", info.CurrentFee).
			Str("want_fee", want.String()).
			Msg("FAILURE: unexpected final state")
		os.Exit(1)
	}

	logger.Info().Msg("SUCCESS: fee schedule matches the mint count")
	fmt.Println()
	fmt.Printf("  Items minted:    %d\n", info.Count)
	fmt.Printf("  Initial fee:     %s\n", types.FormatUnits(base, types.NativeDecimals))
	fmt.Printf("  Current fee:     %s\n", types.FormatUnits(mustAmount(info.CurrentFee), types.NativeDecimals))
	fmt.Printf("  Window:          %d/%d\n", info.MintsSinceLastIncrement, info.IncrementThreshold)
	fmt.Println()
}

func mustCall(ctx context.Context, c *rpcclient.Client, method string, params, result interface{}) {
	if err := c.CallContext(ctx, method, params, result); err != nil {
		alog.Logger.Fatal().Err(err).Str("method", method).Msg("RPC call failed")
	}
}

func mustKey() *crypto.PrivateKey {
	k, err := crypto.GenerateKey()
	if err != nil {
		alog.Logger.Fatal().Err(err).Msg("generate key")
	}
	return k
}

// mustSign wraps body in a request envelope signed by key for method.
func mustSign(key *crypto.PrivateKey, method string, body interface{}) rpc.SignedParam {
	raw, err := json.Marshal(body)
	if err != nil {
		alog.Logger.Fatal().Err(err).Str("method", method).Msg("marshal request")
	}
	auth, err := adminkey.Sign(key, method, raw)
	if err != nil {
		alog.Logger.Fatal().Err(err).Str("method", method).Msg("sign request")
	}
	return rpc.SignedParam{Request: raw, Auth: auth}
}

func mustAmount(s string) *big.Int {
	v, err := types.ParseAmount(s)
	if err != nil {
		alog.Logger.Fatal().Err(err).Msg("parse amount")
	}
	return v
}

func avatar(i int) registry.Attributes {
	return registry.Attributes{
		FirstName:    fmt.Sprintf("Avatar%d", i),
		LastName:     "Devnet",
		BodyType:     "Regular",
		OutfitGender: "Female",
		SkinTone:     "Medium",
		CreatedAt:    "2021-08-01T00:00:00.000Z",
		ImageURI:     fmt.Sprintf("https://www.avatarnft.me/devnet/%d.png", i),
	}
}
