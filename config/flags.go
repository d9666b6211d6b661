package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Version is the daemon version reported by --version.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	DataDir string
	Config  string

	// RPC
	RPC        bool
	RPCAddr    string
	RPCPort    int
	RPCAllowed []string
	RPCCORS    []string

	// Metrics
	Metrics     bool
	MetricsAddr string

	// Mint
	InitialPrice string
	Threshold    uint64
	Collector    string
	Spender      string
	Admin        string

	// Oracle
	NativeFeed     string
	OracleEndpoint string
	OracleTimeout  time.Duration
	OracleStatic   string

	// Currencies
	Currencies []string

	// Contract
	ContractName    string
	ContractSymbol  string
	ContractWebpage string

	// Funds
	FundsEndpoint string
	FundsTimeout  time.Duration
	DevLedger     bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	fs *pflag.FlagSet
}

// Changed reports whether the named flag was set explicitly.
func (f *Flags) Changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// NewFlagSet returns the daemon flag set bound to f.
func NewFlagSet(f *Flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("anmed", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.BoolVarP(&f.Help, "help", "h", false, "show help message")
	fs.BoolVarP(&f.Version, "version", "v", false, "show version information")

	fs.StringVar(&f.DataDir, "datadir", "", "data directory path")
	fs.StringVarP(&f.Config, "config", "c", "", "config file path (default: <datadir>/"+ConfigFileName+")")

	fs.BoolVar(&f.RPC, "rpc", true, "enable the JSON-RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")
	fs.StringSliceVar(&f.RPCAllowed, "rpc-allowed", nil, "IPs allowed to call the RPC server")
	fs.StringSliceVar(&f.RPCCORS, "rpc-cors", nil, "allowed CORS origins")

	fs.BoolVar(&f.Metrics, "metrics", false, "enable the Prometheus endpoint")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Prometheus listen address")

	fs.StringVar(&f.InitialPrice, "initial-price", "", "fee of the first mint in native units")
	fs.Uint64Var(&f.Threshold, "threshold", 0, "successful mints between fee doublings")
	fs.StringVar(&f.Collector, "collector", "", "address receiving payments")
	fs.StringVar(&f.Spender, "spender", "", "address pulling approved alternate-currency funds")
	fs.StringVar(&f.Admin, "admin", "", "administrator address")

	fs.StringVar(&f.NativeFeed, "native-feed", "", "price feed of the native currency")
	fs.StringVar(&f.OracleEndpoint, "oracle", "", "price service JSON-RPC endpoint")
	fs.DurationVar(&f.OracleTimeout, "oracle-timeout", 0, "price service call timeout")
	fs.StringVar(&f.OracleStatic, "oracle-static", "", "in-process feeds as feed:answer:decimals (development)")

	fs.StringSliceVar(&f.Currencies, "currency", nil, "alternate currency as currency:feed (repeatable)")

	fs.StringVar(&f.ContractName, "contract-name", "", "collection name")
	fs.StringVar(&f.ContractSymbol, "contract-symbol", "", "collection symbol")
	fs.StringVar(&f.ContractWebpage, "webpage", "", "collection webpage URI")

	fs.StringVar(&f.FundsEndpoint, "funds", "", "settlement service JSON-RPC endpoint")
	fs.DurationVar(&f.FundsTimeout, "funds-timeout", 0, "settlement service call timeout")
	fs.BoolVar(&f.DevLedger, "dev-ledger", false, "settle payments on an in-process ledger (development)")

	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "output logs as JSON")

	f.fs = fs
	return fs
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := NewFlagSet(f)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags applies explicitly set command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// RPC
	if f.Changed("rpc") {
		cfg.RPC.Enabled = f.RPC
	}
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if len(f.RPCAllowed) > 0 {
		cfg.RPC.AllowedIPs = f.RPCAllowed
	}
	if len(f.RPCCORS) > 0 {
		cfg.RPC.CORSOrigins = f.RPCCORS
	}

	// Metrics
	if f.Changed("metrics") {
		cfg.Metrics.Enabled = f.Metrics
	}
	if f.MetricsAddr != "" {
		cfg.Metrics.Addr = f.MetricsAddr
	}

	// Mint
	if f.InitialPrice != "" {
		cfg.Mint.InitialPrice = f.InitialPrice
	}
	if f.Changed("threshold") {
		cfg.Mint.Threshold = f.Threshold
	}
	if f.Collector != "" {
		cfg.Mint.Collector = f.Collector
	}
	if f.Spender != "" {
		cfg.Mint.Spender = f.Spender
	}
	if f.Admin != "" {
		cfg.Mint.Admin = f.Admin
	}

	// Oracle
	if f.NativeFeed != "" {
		cfg.Oracle.NativeFeed = f.NativeFeed
	}
	if f.OracleEndpoint != "" {
		cfg.Oracle.Endpoint = f.OracleEndpoint
	}
	if f.OracleTimeout != 0 {
		cfg.Oracle.Timeout = f.OracleTimeout
	}
	if f.OracleStatic != "" {
		cfg.Oracle.Static = f.OracleStatic
	}

	if len(f.Currencies) > 0 {
		cfg.Currencies = f.Currencies
	}

	// Contract
	if f.ContractName != "" {
		cfg.Contract.Name = f.ContractName
	}
	if f.ContractSymbol != "" {
		cfg.Contract.Symbol = f.ContractSymbol
	}
	if f.ContractWebpage != "" {
		cfg.Contract.Webpage = f.ContractWebpage
	}

	// Funds
	if f.FundsEndpoint != "" {
		cfg.Funds.Endpoint = f.FundsEndpoint
	}
	if f.FundsTimeout != 0 {
		cfg.Funds.Timeout = f.FundsTimeout
	}
	if f.Changed("dev-ledger") {
		cfg.Ledger.Dev = f.DevLedger
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.Changed("log-json") {
		cfg.Log.JSON = f.LogJSON
	}
}

// PrintUsage writes the daemon help text to stdout.
func PrintUsage() {
	f := &Flags{}
	fs := NewFlagSet(f)
	fmt.Printf(`anmed - avatar issuance daemon

Usage:
  anmed [options]

Options:
%s
Examples:
  # Development node with in-process prices and balances
  anmed --dev-ledger --native-feed=<feed> --oracle-static=<feed>:200000000000:8 \
        --collector=<address> --spender=<address> --admin=<address>

  # Production node against remote price and settlement services
  anmed --oracle=http://127.0.0.1:8700 --funds=http://127.0.0.1:8701

Note:
  The data directory and a default %s are created on first start.
  Pricing parameters are fixed once the first mint is persisted.
`, fs.FlagUsages(), ConfigFileName)
}

// Load loads configuration from args with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}

	if flags.Help {
		PrintUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("anmed version " + Version)
		os.Exit(0)
	}

	cfg := Default()
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Safe to call on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.StoreDir(),
		cfg.KeystoreDir(),
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
