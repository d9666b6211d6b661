package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key. Unknown keys are ignored.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	// Metrics
	case "metrics.enabled", "metrics":
		cfg.Metrics.Enabled = parseBool(value)
	case "metrics.addr":
		cfg.Metrics.Addr = value

	// Mint
	case "mint.initialprice":
		cfg.Mint.InitialPrice = value
	case "mint.threshold":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Mint.Threshold = n
	case "mint.collector":
		cfg.Mint.Collector = value
	case "mint.spender":
		cfg.Mint.Spender = value
	case "mint.admin":
		cfg.Mint.Admin = value

	// Oracle
	case "oracle.nativefeed":
		cfg.Oracle.NativeFeed = value
	case "oracle.endpoint":
		cfg.Oracle.Endpoint = value
	case "oracle.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Oracle.Timeout = d
	case "oracle.static":
		cfg.Oracle.Static = value

	// Currencies
	case "currency.supported":
		cfg.Currencies = parseStringList(value)

	// Contract
	case "contract.name":
		cfg.Contract.Name = value
	case "contract.symbol":
		cfg.Contract.Symbol = value
	case "contract.webpage":
		cfg.Contract.Webpage = value

	// Funds
	case "funds.endpoint":
		cfg.Funds.Endpoint = value
	case "funds.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Funds.Timeout = d

	// Ledger
	case "ledger.dev":
		cfg.Ledger.Dev = parseBool(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# ANME issuance daemon configuration

# Data directory (default: ~/.anme)
# datadir = ~/.anme

# ============================================================================
# RPC Server
# ============================================================================

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = 8655
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000

# ============================================================================
# Metrics (Prometheus)
# ============================================================================

metrics.enabled = false
metrics.addr = 127.0.0.1:9655

# ============================================================================
# Minting
# ============================================================================

# Fee of the first mint in native units. The fee doubles every
# mint.threshold successful mints.
mint.initialprice = 50
mint.threshold = 50

# Address receiving every payment
# mint.collector = 0x...

# Address allowed to pull approved alternate-currency funds
# mint.spender = 0x...

# Administrator address (see: anme-cli key address)
# mint.admin = 0x...

# ============================================================================
# Price Reference
# ============================================================================

# Feed quoting the native currency
# oracle.nativefeed = 0x...

# JSON-RPC endpoint serving oracle_latestRoundData
# oracle.endpoint = http://127.0.0.1:8700
# oracle.timeout = 10s

# In-process feeds as feed:answer:decimals (development only)
# oracle.static = 0x...:200000000000:8

# ============================================================================
# Alternate Currencies
# ============================================================================

# Currencies registered at startup, as currency:feed (comma-separated)
# currency.supported = 0x...:0x...

# ============================================================================
# Collection
# ============================================================================

contract.name = AvatarNftMe
contract.symbol = ANME
# contract.webpage = https://avatarnftme.example

# ============================================================================
# Settlement
# ============================================================================

# JSON-RPC endpoint serving funds_transfer, funds_transferFrom and funds_refund
# funds.endpoint = http://127.0.0.1:8701
# funds.timeout = 10s

# In-process balances and allowances (development only)
ledger.dev = false

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
