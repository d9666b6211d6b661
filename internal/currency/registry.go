// Package currency tracks which currencies are accepted for payment and
// which price feed converts each of them.
package currency

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	alog "github.com/avatarnftme/anme-mint/internal/log"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Registry errors.
var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNativeCurrency      = errors.New("native currency feed cannot be replaced")
	ErrInvalidFeed         = errors.New("invalid feed id")
)

// UnsupportedCurrencyError names the currency that has no registered feed.
type UnsupportedCurrencyError struct {
	Currency types.Address
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency %s", e.Currency)
}

// Is reports whether target is ErrUnsupportedCurrency.
func (e *UnsupportedCurrencyError) Is(target error) bool {
	return target == ErrUnsupportedCurrency
}

// Entry maps an accepted currency to its price feed.
type Entry struct {
	Currency types.Address `json:"currency"`
	Feed     types.FeedID  `json:"feed"`
}

// Registry is the additive currency to feed map. The native currency is
// always registered with the feed fixed at construction.
type Registry struct {
	mu         sync.RWMutex
	nativeFeed types.FeedID
	feeds      map[types.Address]types.FeedID
	store      *Store
}

// New creates a memory-only registry.
func New(nativeFeed types.FeedID) *Registry {
	return &Registry{
		nativeFeed: nativeFeed,
		feeds:      make(map[types.Address]types.FeedID),
	}
}

// NewWithStore creates a registry that persists registrations to store and
// restores the ones already there.
func NewWithStore(nativeFeed types.FeedID, store *Store) (*Registry, error) {
	r := New(nativeFeed)
	entries, err := store.Load()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		r.feeds[e.Currency] = e.Feed
	}
	r.store = store
	if len(entries) > 0 {
		alog.Currency.Info().Int("currencies", len(entries)).Msg("Restored currency registry")
	}
	return r, nil
}

// NativeFeed returns the feed used for the native currency.
func (r *Registry) NativeFeed() types.FeedID {
	return r.nativeFeed
}

// RegisterCurrency associates currency with feed. Registering the same pair
// again is a no-op; registering another feed replaces the mapping. The
// feed is not queried here.
func (r *Registry) RegisterCurrency(currency types.Address, feed types.FeedID) (bool, error) {
	if currency == types.NativeCurrency {
		return false, ErrNativeCurrency
	}
	if feed.IsZero() {
		return false, fmt.Errorf("%w: zero feed for %s", ErrInvalidFeed, currency)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.feeds[currency]; ok && cur == feed {
		return false, nil
	}
	if r.store != nil {
		if err := r.store.Put(Entry{Currency: currency, Feed: feed}); err != nil {
			return false, err
		}
	}
	r.feeds[currency] = feed
	return true, nil
}

// LookupFeed returns the feed registered for currency.
func (r *Registry) LookupFeed(currency types.Address) (types.FeedID, error) {
	if currency == types.NativeCurrency {
		return r.nativeFeed, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[currency]
	if !ok {
		return types.FeedID{}, &UnsupportedCurrencyError{Currency: currency}
	}
	return feed, nil
}

// IsSupported reports whether currency can be used for payment.
func (r *Registry) IsSupported(currency types.Address) bool {
	_, err := r.LookupFeed(currency)
	return err == nil
}

// List returns the alternate currencies sorted by id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.feeds))
	for c, f := range r.feeds {
		out = append(out, Entry{Currency: c, Feed: f})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Currency[:], out[j].Currency[:]) < 0
	})
	return out
}

// Len returns the number of alternate currencies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.feeds)
}
