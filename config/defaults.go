package config

import "time"

// Default returns the default daemon configuration.
//
// The mint roles and the native feed have no sensible default and must be
// set in anme.conf or on the command line.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       8655,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9655",
		},
		Mint: MintConfig{
			InitialPrice: "50",
			Threshold:    50,
		},
		Oracle: OracleConfig{
			Timeout: 10 * time.Second,
		},
		Funds: FundsConfig{
			Timeout: 10 * time.Second,
		},
		Contract: ContractConfig{
			Name:   "AvatarNftMe",
			Symbol: "ANME",
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
