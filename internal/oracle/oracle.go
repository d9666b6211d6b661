// Package oracle adapts external price feeds into validated prices.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Oracle errors.
var (
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrInvalidPrice      = errors.New("invalid price")
)

// Round is the latest answer reported by a feed.
type Round struct {
	Answer    *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// Feed reads raw rounds from a price source.
type Feed interface {
	LatestRound(ctx context.Context, feed types.FeedID) (Round, error)
}

// Price is a positive price scaled by 10^Decimals.
type Price struct {
	Value    *big.Int
	Decimals uint8
}

// Adapter validates feed answers. It holds no state: every call reads the
// feed again and nothing is cached or retried.
type Adapter struct {
	feed Feed
}

// NewAdapter wraps feed.
func NewAdapter(feed Feed) *Adapter {
	return &Adapter{feed: feed}
}

// GetPrice returns the current price for feed.
func (a *Adapter) GetPrice(ctx context.Context, feed types.FeedID) (Price, error) {
	round, err := a.feed.LatestRound(ctx, feed)
	if err != nil {
		return Price{}, fmt.Errorf("%w: feed %s: %v", ErrOracleUnavailable, feed, err)
	}
	if round.Answer == nil || round.Answer.Sign() <= 0 {
		return Price{}, fmt.Errorf("%w: feed %s answered %s", ErrInvalidPrice, feed, round.Answer)
	}
	return Price{Value: new(big.Int).Set(round.Answer), Decimals: round.Decimals}, nil
}
