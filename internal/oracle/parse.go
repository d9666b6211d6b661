package oracle

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

func parseSigned(s string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimSpace(s), 10)
}

// ParseStatic parses a static answer table of the form
// "<feed>:<answer>:<decimals>,..." as used by the oracle.static setting.
func ParseStatic(s string) (*StaticFeed, error) {
	feed := NewStaticFeed()
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("static answer %q: want feed:answer:decimals", entry)
		}
		id, err := types.ParseFeedID(parts[0])
		if err != nil {
			return nil, fmt.Errorf("static answer %q: %w", entry, err)
		}
		answer, ok := parseSigned(parts[1])
		if !ok {
			return nil, fmt.Errorf("static answer %q: bad answer", entry)
		}
		dec, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("static answer %q: bad decimals: %w", entry, err)
		}
		feed.Set(id, answer, uint8(dec))
	}
	return feed, nil
}
