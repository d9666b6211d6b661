// Package registry assigns sequential item ids and records who owns each
// issued item.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Registry errors.
var (
	ErrUnknownItem = errors.New("unknown item")
	ErrOutOfOrder  = errors.New("item id out of sequence")
)

// UnknownItemError names an id that was never minted.
type UnknownItemError struct {
	ID uint64
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown item %d", e.ID)
}

// Is reports whether target is ErrUnknownItem.
func (e *UnknownItemError) Is(target error) bool {
	return target == ErrUnknownItem
}

// CurrencyChecker reports whether a currency is accepted for payment.
type CurrencyChecker interface {
	IsSupported(currency types.Address) bool
}

// Registry owns the issuance counter and the item collection. The first
// item gets id 0.
type Registry struct {
	mu         sync.RWMutex
	count      uint64
	items      map[uint64]Item
	currencies CurrencyChecker
}

// New creates an empty registry.
func New(currencies CurrencyChecker) *Registry {
	return &Registry{
		items:      make(map[uint64]Item),
		currencies: currencies,
	}
}

// Restore installs persisted items. Ids must be exactly 0..count-1.
func (r *Registry) Restore(count uint64, items []Item) error {
	if uint64(len(items)) != count {
		return fmt.Errorf("restore: counter %d but %d items stored", count, len(items))
	}
	m := make(map[uint64]Item, len(items))
	for _, it := range items {
		if it.ID >= count {
			return fmt.Errorf("restore: item %d beyond counter %d", it.ID, count)
		}
		m[it.ID] = it
	}
	if uint64(len(m)) != count {
		return fmt.Errorf("restore: duplicate item ids")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = count
	r.items = m
	return nil
}

// Prepare builds the item the next mint would create, without recording it.
func (r *Registry) Prepare(owner types.Address, attrs Attributes, at time.Time) Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Item{
		ID:         r.count,
		Owner:      owner,
		Attributes: attrs,
		MintedAt:   at.UTC().Truncate(time.Second),
	}
}

// Commit records an item produced by Prepare and advances the counter.
func (r *Registry) Commit(it Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID != r.count {
		return fmt.Errorf("%w: got %d, next is %d", ErrOutOfOrder, it.ID, r.count)
	}
	r.items[it.ID] = it
	r.count++
	return nil
}

// Mint records a new item for owner and returns its id.
func (r *Registry) Mint(owner types.Address, attrs Attributes) (uint64, error) {
	it := r.Prepare(owner, attrs, time.Now())
	if err := r.Commit(it); err != nil {
		return 0, err
	}
	return it.ID, nil
}

// Owner returns the owner of item id.
func (r *Registry) Owner(id uint64) (types.Address, error) {
	it, err := r.Item(id)
	if err != nil {
		return types.Address{}, err
	}
	return it.Owner, nil
}

// Item returns item id.
func (r *Registry) Item(id uint64) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return Item{}, &UnknownItemError{ID: id}
	}
	return it, nil
}

// Count returns the number of items minted so far.
func (r *Registry) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// SupportsCurrency reports whether currency can pay for a mint.
func (r *Registry) SupportsCurrency(currency types.Address) bool {
	return r.currencies.IsSupported(currency)
}
