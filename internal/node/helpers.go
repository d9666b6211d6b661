package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avatarnftme/anme-mint/config"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// roles are the parsed addresses every mint involves.
type roles struct {
	collector  types.Address
	spender    types.Address
	admin      types.Address
	nativeFeed types.FeedID
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// parseRoles reads the mint addresses from cfg.
func parseRoles(cfg *config.Config) (roles, error) {
	var r roles
	var err error

	if r.collector, err = types.ParseAddress(cfg.Mint.Collector); err != nil {
		return r, fmt.Errorf("mint.collector: %w", err)
	}
	if r.spender, err = types.ParseAddress(cfg.Mint.Spender); err != nil {
		return r, fmt.Errorf("mint.spender: %w", err)
	}
	if r.admin, err = types.ParseAddress(cfg.Mint.Admin); err != nil {
		return r, fmt.Errorf("mint.admin: %w", err)
	}
	if r.nativeFeed, err = types.ParseFeedID(cfg.Oracle.NativeFeed); err != nil {
		return r, fmt.Errorf("oracle.nativefeed: %w", err)
	}
	return r, nil
}

// parseCurrency treats "" and "native" as the native currency.
func parseCurrency(s string) (types.Address, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return types.NativeCurrency, nil
	}
	return types.ParseAddress(s)
}
