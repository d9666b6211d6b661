package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/avatarnftme/anme-mint/internal/oracle"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/hashicorp/go-multierror"
)

// Validate checks the config for operator mistakes and reports all of them
// at once.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	var errs *multierror.Error
	add := func(format string, args ...interface{}) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	if cfg.DataDir == "" {
		add("datadir must be set")
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		add("rpc.port must be in range [0, 65535]")
	}
	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			add("metrics.addr: %v", err)
		}
	}

	// Mint
	if price, err := cfg.InitialPrice(); err != nil {
		add("mint.initialprice: %v", err)
	} else if price.Sign() <= 0 {
		add("mint.initialprice must be positive")
	}
	if cfg.Mint.Threshold == 0 {
		add("mint.threshold must be positive")
	}
	requireAddress(&errs, "mint.collector", cfg.Mint.Collector)
	requireAddress(&errs, "mint.spender", cfg.Mint.Spender)
	requireAddress(&errs, "mint.admin", cfg.Mint.Admin)

	// Oracle
	if cfg.Oracle.NativeFeed == "" {
		add("oracle.nativefeed must be set")
	} else if feed, err := types.ParseFeedID(cfg.Oracle.NativeFeed); err != nil {
		add("oracle.nativefeed: %v", err)
	} else if feed.IsZero() {
		add("oracle.nativefeed must not be zero")
	}
	switch {
	case cfg.Oracle.Endpoint == "" && cfg.Oracle.Static == "":
		add("one of oracle.endpoint or oracle.static must be set")
	case cfg.Oracle.Endpoint != "" && cfg.Oracle.Static != "":
		add("oracle.endpoint and oracle.static are mutually exclusive")
	case cfg.Oracle.Endpoint != "":
		requireURL(&errs, "oracle.endpoint", cfg.Oracle.Endpoint)
	default:
		if _, err := oracle.ParseStatic(cfg.Oracle.Static); err != nil {
			add("oracle.static: %v", err)
		}
	}
	if cfg.Oracle.Timeout < 0 {
		add("oracle.timeout must not be negative")
	}

	// Currencies
	if bindings, err := cfg.SupportedCurrencies(); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		for i, b := range bindings {
			if b.Currency.IsZero() {
				add("currency.supported[%d]: the native currency cannot be registered", i)
			}
			if b.Feed.IsZero() {
				add("currency.supported[%d]: feed must not be zero", i)
			}
		}
	}

	// Contract
	if cfg.Contract.Name == "" {
		add("contract.name must be set")
	}
	if cfg.Contract.Symbol == "" {
		add("contract.symbol must be set")
	}

	// Settlement
	switch {
	case cfg.Funds.Endpoint == "" && !cfg.Ledger.Dev:
		add("one of funds.endpoint or ledger.dev must be set")
	case cfg.Funds.Endpoint != "" && cfg.Ledger.Dev:
		add("funds.endpoint and ledger.dev are mutually exclusive")
	case cfg.Funds.Endpoint != "":
		requireURL(&errs, "funds.endpoint", cfg.Funds.Endpoint)
	}
	if cfg.Funds.Timeout < 0 {
		add("funds.timeout must not be negative")
	}

	return errs.ErrorOrNil()
}

func requireAddress(errs **multierror.Error, field, value string) {
	if value == "" {
		*errs = multierror.Append(*errs, fmt.Errorf("%s must be set", field))
		return
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", field, err))
		return
	}
	if addr.IsZero() {
		*errs = multierror.Append(*errs, fmt.Errorf("%s must not be the zero address", field))
	}
}

func requireURL(errs **multierror.Error, field, value string) {
	u, err := url.Parse(value)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", field, err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		*errs = multierror.Append(*errs, fmt.Errorf("%s must be an http(s) URL", field))
	}
}
