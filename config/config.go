// Package config handles daemon configuration.
//
// Settings come from three layers, each overriding the previous one:
// built-in defaults, the anme.conf file in the data directory, and
// command-line flags.
package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

// ConfigFileName is the name of the config file inside the data directory.
const ConfigFileName = "anme.conf"

// Config holds the daemon configuration.
type Config struct {
	// Core
	DataDir string `conf:"datadir"`

	// JSON-RPC server
	RPC RPCConfig

	// Prometheus endpoint
	Metrics MetricsConfig

	// Issuance economics and roles
	Mint MintConfig

	// Price reference
	Oracle OracleConfig

	// Alternate currencies registered at startup, as "currency:feed" pairs.
	Currencies []string `conf:"currency.supported"`

	// Collection metadata
	Contract ContractConfig

	// Payment settlement
	Funds FundsConfig

	// Development balance book
	Ledger LedgerConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `conf:"metrics.enabled"`
	Addr    string `conf:"metrics.addr"`
}

// MintConfig holds the pricing parameters and the addresses that take part
// in every mint.
type MintConfig struct {
	InitialPrice string `conf:"mint.initialprice"` // Native units, e.g. "0.1".
	Threshold    uint64 `conf:"mint.threshold"`
	Collector    string `conf:"mint.collector"` // Receives every payment.
	Spender      string `conf:"mint.spender"`   // Pulls approved alternate-currency funds.
	Admin        string `conf:"mint.admin"`
}

// OracleConfig holds price reference settings.
//
// Either Endpoint or Static must be set. Static takes "feed:answer:decimals"
// triples and serves them in-process, mainly for development.
type OracleConfig struct {
	NativeFeed string        `conf:"oracle.nativefeed"`
	Endpoint   string        `conf:"oracle.endpoint"`
	Timeout    time.Duration `conf:"oracle.timeout"`
	Static     string        `conf:"oracle.static"`
}

// ContractConfig holds collection metadata.
type ContractConfig struct {
	Name    string `conf:"contract.name"`
	Symbol  string `conf:"contract.symbol"`
	Webpage string `conf:"contract.webpage"`
}

// FundsConfig points at the settlement service that moves payments.
type FundsConfig struct {
	Endpoint string        `conf:"funds.endpoint"`
	Timeout  time.Duration `conf:"funds.timeout"`
}

// LedgerConfig controls the in-process development ledger.
type LedgerConfig struct {
	Dev bool `conf:"ledger.dev"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// CurrencyBinding is a parsed currency.supported entry.
type CurrencyBinding struct {
	Currency types.Address
	Feed     types.FeedID
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.anme
//	macOS:   ~/Library/Application Support/ANME
//	Windows: %APPDATA%\ANME
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".anme"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "ANME")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "ANME")
		}
		return filepath.Join(home, "AppData", "Roaming", "ANME")
	default:
		return filepath.Join(home, ".anme")
	}
}

// StoreDir returns the Badger database directory.
func (c *Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}

// KeystoreDir returns the admin key directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, ConfigFileName)
}

// RPCEndpoint returns the listen address of the RPC server.
func (c *Config) RPCEndpoint() string {
	return fmt.Sprintf("%s:%d", c.RPC.Addr, c.RPC.Port)
}

// InitialPrice parses mint.initialprice into native base units.
func (c *Config) InitialPrice() (*big.Int, error) {
	return types.ParseUnits(c.Mint.InitialPrice, types.NativeDecimals)
}

// SupportedCurrencies parses currency.supported.
func (c *Config) SupportedCurrencies() ([]CurrencyBinding, error) {
	out := make([]CurrencyBinding, 0, len(c.Currencies))
	for i, entry := range c.Currencies {
		cur, feed, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("currency.supported[%d]: expected currency:feed, got %q", i, entry)
		}
		addr, err := types.ParseAddress(strings.TrimSpace(cur))
		if err != nil {
			return nil, fmt.Errorf("currency.supported[%d]: currency: %w", i, err)
		}
		id, err := types.ParseFeedID(strings.TrimSpace(feed))
		if err != nil {
			return nil, fmt.Errorf("currency.supported[%d]: feed: %w", i, err)
		}
		out = append(out, CurrencyBinding{Currency: addr, Feed: id})
	}
	return out, nil
}
