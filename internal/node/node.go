// Package node assembles the issuance engine from configuration so it can
// be embedded in any binary.
package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avatarnftme/anme-mint/config"
	"github.com/avatarnftme/anme-mint/internal/currency"
	"github.com/avatarnftme/anme-mint/internal/events"
	alog "github.com/avatarnftme/anme-mint/internal/log"
	"github.com/avatarnftme/anme-mint/internal/metadata"
	"github.com/avatarnftme/anme-mint/internal/metrics"
	"github.com/avatarnftme/anme-mint/internal/minter"
	"github.com/avatarnftme/anme-mint/internal/oracle"
	"github.com/avatarnftme/anme-mint/internal/payment"
	"github.com/avatarnftme/anme-mint/internal/pricing"
	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/avatarnftme/anme-mint/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// Node is a fully-initialized issuance daemon.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Storage
	db    storage.DB // Badger root, closed on Stop.
	scope storage.DB // Collection namespace inside db.

	// Engine
	currencies *currency.Registry
	pricing    *pricing.Engine
	registry   *registry.Registry
	ledger     *payment.Ledger // Non-nil in dev mode.
	minter     *minter.Minter

	// Observability
	metricsReg    *prometheus.Registry
	collector     *metrics.Collector
	metricsServer *metrics.Server

	// RPC
	rpcServer *rpc.Server
}

// New creates and initializes a Node. It opens storage, restores the
// persisted state and wires every component, but does not start listening.
// Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "anmed.log")
	}
	if err := alog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := alog.WithComponent("node")
	defer alog.Timed(logger, "node setup")()

	r, err := parseRoles(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("collection", cfg.Contract.Name).
		Str("symbol", cfg.Contract.Symbol).
		Str("initial_price", cfg.Mint.InitialPrice).
		Uint64("threshold", cfg.Mint.Threshold).
		Bool("dev_ledger", cfg.Ledger.Dev).
		Msg("Starting ANME issuance daemon")

	// ── 2. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.StoreDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.StoreDir(), err)
	}
	n, err := assemble(cfg, r, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().Str("path", cfg.StoreDir()).Msg("Database opened")
	return n, nil
}

// assemble wires the engine over db. The caller closes db on error.
func assemble(cfg *config.Config, r roles, db storage.DB, logger zerolog.Logger) (*Node, error) {
	scope := storage.NewPrefixDB(db, []byte(strings.ToLower(cfg.Contract.Symbol)+"/"))

	// ── 3. Price reference ──────────────────────────────────────────
	var (
		feed   oracle.Feed
		static *oracle.StaticFeed
	)
	if cfg.Oracle.Static != "" {
		sf, err := oracle.ParseStatic(cfg.Oracle.Static)
		if err != nil {
			return nil, fmt.Errorf("oracle.static: %w", err)
		}
		feed, static = sf, sf
		logger.Warn().Int("feeds", len(sf.Feeds())).Msg("Using static price answers")
	} else {
		feed = oracle.NewRPCFeed(rpcclient.NewWithTimeout(cfg.Oracle.Endpoint, cfg.Oracle.Timeout))
		alog.Oracle.Info().Str("endpoint", cfg.Oracle.Endpoint).Dur("timeout", cfg.Oracle.Timeout).Msg("Price service configured")
	}
	adapter := oracle.NewAdapter(feed)

	// ── 4. Currencies ───────────────────────────────────────────────
	currencies, err := currency.NewWithStore(r.nativeFeed, currency.NewStore(scope))
	if err != nil {
		return nil, fmt.Errorf("restore currencies: %w", err)
	}
	bindings, err := cfg.SupportedCurrencies()
	if err != nil {
		return nil, err
	}
	// Config seeds currencies the store does not know yet. A stored binding
	// may have been changed by the administrator and is kept.
	for _, b := range bindings {
		if stored, err := currencies.LookupFeed(b.Currency); err == nil {
			if stored != b.Feed {
				alog.Currency.Warn().
					Str("currency", b.Currency.String()).
					Str("stored_feed", stored.String()).
					Str("config_feed", b.Feed.String()).
					Msg("Config feed differs from stored binding, keeping stored")
			}
			continue
		}
		if _, err := currencies.RegisterCurrency(b.Currency, b.Feed); err != nil {
			return nil, fmt.Errorf("register currency %s: %w", b.Currency, err)
		}
		alog.Currency.Info().Str("currency", b.Currency.String()).Str("feed", b.Feed.String()).Msg("Currency registered from config")
	}

	// ── 5. Pricing ──────────────────────────────────────────────────
	base, err := cfg.InitialPrice()
	if err != nil {
		return nil, fmt.Errorf("mint.initialprice: %w", err)
	}
	engine, err := pricing.New(base, cfg.Mint.Threshold, adapter, currencies)
	if err != nil {
		return nil, err
	}
	state, found, err := pricing.NewStore(scope).Load()
	if err != nil {
		return nil, fmt.Errorf("load pricing state: %w", err)
	}
	if found {
		if err := engine.Restore(state); err != nil {
			return nil, err
		}
	}

	// ── 6. Issuance registry ────────────────────────────────────────
	reg := registry.New(currencies)
	count, items, err := registry.NewStore(scope).Load()
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	if err := reg.Restore(count, items); err != nil {
		return nil, err
	}
	alog.Registry.Info().
		Uint64("items", count).
		Str("current_fee", engine.CurrentFee().String()).
		Uint64("mints_since_increment", engine.MintsSinceLastIncrement()).
		Msg("State restored")

	// ── 7. Payments ─────────────────────────────────────────────────
	var (
		funds  payment.Funds
		ledger *payment.Ledger
	)
	if cfg.Ledger.Dev {
		ledger = payment.NewLedger()
		funds = ledger
		alog.Payment.Warn().Msg("Settling payments on the in-process development ledger")
	} else {
		funds = payment.NewRPCFunds(rpcclient.NewWithTimeout(cfg.Funds.Endpoint, cfg.Funds.Timeout))
		alog.Payment.Info().Str("endpoint", cfg.Funds.Endpoint).Msg("Settlement service configured")
	}
	validator := payment.NewValidator(engine, currencies, funds, r.collector, r.spender)

	// ── 8. Collection metadata ──────────────────────────────────────
	contract, err := metadata.NewContract(cfg.Contract.Name, cfg.Contract.Symbol, r.collector, scope)
	if err != nil {
		return nil, err
	}
	if cfg.Contract.Webpage != "" && contract.WebpageURI() == "" {
		if err := contract.SetWebpageURI(cfg.Contract.Webpage); err != nil {
			return nil, err
		}
	}

	// ── 9. Metrics ──────────────────────────────────────────────────
	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(collectors.NewGoCollector())
	collector := metrics.New(metricsReg, currencies.Len)
	collector.Sync(engine.CurrentFee(), reg.Count())
	if err := metrics.RegisterBadgerMetrics(metricsReg); err != nil {
		return nil, err
	}

	// ── 10. Minter ──────────────────────────────────────────────────
	bus := events.NewBus(events.NewLogger(alog.Minter), collector)
	m, err := minter.New(minter.Deps{
		Currencies: currencies,
		Pricing:    engine,
		Payments:   validator,
		Registry:   reg,
		Contract:   contract,
		Auth:       minter.SingleAdmin{Admin: r.admin},
		URIs:       metadata.NewFormatter(cfg.Contract.Symbol),
		Bus:        bus,
		DB:         scope,
		Observer:   collector,
	})
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		scope:      scope,
		currencies: currencies,
		pricing:    engine,
		registry:   reg,
		ledger:     ledger,
		minter:     m,
		metricsReg: metricsReg,
		collector:  collector,
	}

	// ── 11. RPC ─────────────────────────────────────────────────────
	if cfg.RPC.Enabled {
		n.rpcServer = rpc.New(cfg.RPCEndpoint(), m, cfg.RPC)
		if ledger != nil {
			n.rpcServer.SetLedger(ledger)
		}
		if static != nil {
			n.rpcServer.SetPriceFeed(static)
		}
	}
	if cfg.Metrics.Enabled {
		n.metricsServer = metrics.NewServer(alog.Metrics, cfg.Metrics.Addr, metricsReg)
	}

	return n, nil
}

// Start binds the RPC and metrics listeners.
func (n *Node) Start() error {
	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			return err
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")
	}
	if n.metricsServer != nil {
		if err := n.metricsServer.Start(); err != nil {
			return err
		}
	}
	n.logger.Info().
		Uint64("items", n.minter.Count()).
		Str("fee", n.minter.Fee().String()).
		Msg("Ready to mint")
	return nil
}

// Stop shuts down the listeners and closes storage.
func (n *Node) Stop() {
	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("RPC shutdown")
		}
	}
	if n.metricsServer != nil {
		if err := n.metricsServer.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("Metrics shutdown")
		}
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Closing database")
		}
	}
	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the bound RPC address, or "" when RPC is disabled.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// MetricsAddr returns the bound metrics address, or "" when disabled or
// not started.
func (n *Node) MetricsAddr() string {
	if n.metricsServer == nil || n.metricsServer.Addr() == nil {
		return ""
	}
	return n.metricsServer.Addr().String()
}

// Minter returns the sequencer.
func (n *Node) Minter() *minter.Minter {
	return n.minter
}

// Ledger returns the development ledger, or nil outside dev mode.
func (n *Node) Ledger() *payment.Ledger {
	return n.ledger
}

// Gatherer returns the metrics registry.
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.metricsReg
}

// Quote is a convenience for embedders that only need prices.
func (n *Node) Quote(ctx context.Context, cur string) (string, error) {
	addr, err := parseCurrency(cur)
	if err != nil {
		return "", err
	}
	amount, err := n.minter.Quote(ctx, addr)
	if err != nil {
		return "", err
	}
	return amount.String(), nil
}
