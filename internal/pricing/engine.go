// Package pricing implements the escalating issuance fee schedule and the
// conversion of fees into alternate currencies.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/avatarnftme/anme-mint/internal/oracle"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Pricing errors.
var (
	ErrInvalidBasePrice = errors.New("base price must be positive")
	ErrInvalidThreshold = errors.New("increment threshold must be positive")
	ErrStateMismatch    = errors.New("stored pricing state does not match configuration")
)

// PriceSource returns validated feed prices.
type PriceSource interface {
	GetPrice(ctx context.Context, feed types.FeedID) (oracle.Price, error)
}

// FeedLookup resolves the feed of a currency.
type FeedLookup interface {
	LookupFeed(currency types.Address) (types.FeedID, error)
	NativeFeed() types.FeedID
}

// State is the fee schedule. CurrentFee never decreases; it doubles each
// time MintsSinceLastIncrement reaches IncrementThreshold.
type State struct {
	BasePrice               *big.Int
	CurrentFee              *big.Int
	IncrementThreshold      uint64
	MintsSinceLastIncrement uint64
}

func (s State) clone() State {
	s.BasePrice = new(big.Int).Set(s.BasePrice)
	s.CurrentFee = new(big.Int).Set(s.CurrentFee)
	return s
}

// Engine owns the pricing state. Mutations are expected to be serialized by
// the caller; reads may happen concurrently.
type Engine struct {
	mu     sync.RWMutex
	state  State
	prices PriceSource
	feeds  FeedLookup
}

// New creates an engine whose fee starts at basePrice.
func New(basePrice *big.Int, threshold uint64, prices PriceSource, feeds FeedLookup) (*Engine, error) {
	if basePrice == nil || basePrice.Sign() <= 0 {
		return nil, ErrInvalidBasePrice
	}
	if threshold == 0 {
		return nil, ErrInvalidThreshold
	}
	return &Engine{
		state: State{
			BasePrice:          new(big.Int).Set(basePrice),
			CurrentFee:         new(big.Int).Set(basePrice),
			IncrementThreshold: threshold,
		},
		prices: prices,
		feeds:  feeds,
	}, nil
}

// Restore installs a previously persisted state. Its base price and
// threshold must equal the configured ones.
func (e *Engine) Restore(s State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s.BasePrice == nil || s.CurrentFee == nil ||
		s.BasePrice.Cmp(e.state.BasePrice) != 0 || s.IncrementThreshold != e.state.IncrementThreshold {
		return fmt.Errorf("%w: stored base %s threshold %d, configured base %s threshold %d",
			ErrStateMismatch, s.BasePrice, s.IncrementThreshold, e.state.BasePrice, e.state.IncrementThreshold)
	}
	if s.CurrentFee.Cmp(s.BasePrice) < 0 || s.MintsSinceLastIncrement >= s.IncrementThreshold {
		return fmt.Errorf("%w: inconsistent stored fee %s after %d mints",
			ErrStateMismatch, s.CurrentFee, s.MintsSinceLastIncrement)
	}
	e.state = s.clone()
	return nil
}

// CurrentFee returns the native amount required for the next mint.
func (e *Engine) CurrentFee() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return new(big.Int).Set(e.state.CurrentFee)
}

// InitialPrice returns the construction-time base price.
func (e *Engine) InitialPrice() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return new(big.Int).Set(e.state.BasePrice)
}

// IncrementThreshold returns the number of mints between fee doublings.
func (e *Engine) IncrementThreshold() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.IncrementThreshold
}

// MintsSinceLastIncrement returns the mints counted toward the next doubling.
func (e *Engine) MintsSinceLastIncrement() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.MintsSinceLastIncrement
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.clone()
}

// QuoteInCurrency converts a native amount into units of currency:
//
//	amount * nativePrice * 10^targetDecimals / (targetPrice * 10^nativeDecimals)
//
// The single division truncates toward zero. The native currency quotes at
// par. Lookup and oracle errors are returned unchanged.
func (e *Engine) QuoteInCurrency(ctx context.Context, currency types.Address, amountNative *big.Int) (*big.Int, error) {
	if currency == types.NativeCurrency {
		return new(big.Int).Set(amountNative), nil
	}
	targetFeed, err := e.feeds.LookupFeed(currency)
	if err != nil {
		return nil, err
	}
	native, err := e.prices.GetPrice(ctx, e.feeds.NativeFeed())
	if err != nil {
		return nil, err
	}
	target, err := e.prices.GetPrice(ctx, targetFeed)
	if err != nil {
		return nil, err
	}
	return Convert(amountNative, native, target), nil
}

// Convert applies the quote formula to already fetched prices.
func Convert(amount *big.Int, native, target oracle.Price) *big.Int {
	num := new(big.Int).Mul(amount, native.Value)
	num.Mul(num, types.Pow10(target.Decimals))
	den := new(big.Int).Mul(target.Value, types.Pow10(native.Decimals))
	return num.Quo(num, den)
}

// Next computes the state after one more successful mint without
// installing it. The bool reports whether the fee doubled.
func (e *Engine) Next() (State, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return advance(e.state)
}

func advance(s State) (State, bool) {
	next := s.clone()
	next.MintsSinceLastIncrement++
	if next.MintsSinceLastIncrement < next.IncrementThreshold {
		return next, false
	}
	next.CurrentFee.Lsh(next.CurrentFee, 1)
	next.MintsSinceLastIncrement = 0
	return next, true
}

// Apply installs a state produced by Next.
func (e *Engine) Apply(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s.clone()
}

// RecordSuccessfulMint counts one mint and returns whether the fee doubled
// along with the fee now in effect.
func (e *Engine) RecordSuccessfulMint() (bool, *big.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, incremented := advance(e.state)
	e.state = next
	return incremented, new(big.Int).Set(next.CurrentFee)
}
