package minter

import (
	"context"
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/currency"
	"github.com/avatarnftme/anme-mint/internal/metadata"
	"github.com/avatarnftme/anme-mint/internal/pricing"
	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Reads go straight to the owning component and do not take the sequencer
// lock.

// Info summarizes the issuance state.
type Info struct {
	Count     uint64
	Pricing   pricing.State
	Collector types.Address
	Spender   types.Address
}

// Info returns the current issuance state.
func (m *Minter) Info() Info {
	return Info{
		Count:     m.registry.Count(),
		Pricing:   m.pricing.State(),
		Collector: m.payments.Collector(),
		Spender:   m.payments.Spender(),
	}
}

// Fee returns the native amount the next mint requires.
func (m *Minter) Fee() *big.Int {
	return m.pricing.CurrentFee()
}

// Quote returns the amount of cur the next mint requires.
func (m *Minter) Quote(ctx context.Context, cur types.Address) (*big.Int, error) {
	return m.pricing.QuoteInCurrency(ctx, cur, m.pricing.CurrentFee())
}

// Count returns the number of items minted.
func (m *Minter) Count() uint64 {
	return m.registry.Count()
}

// Owner returns the owner of item id.
func (m *Minter) Owner(id uint64) (types.Address, error) {
	return m.registry.Owner(id)
}

// Item returns item id.
func (m *Minter) Item(id uint64) (registry.Item, error) {
	return m.registry.Item(id)
}

// TokenURI renders the URI of item id.
func (m *Minter) TokenURI(id uint64) (string, error) {
	it, err := m.registry.Item(id)
	if err != nil {
		return "", err
	}
	if m.uris == nil {
		return "", nil
	}
	return m.uris.TokenURI(it)
}

// SupportsCurrency reports whether cur can pay for a mint.
func (m *Minter) SupportsCurrency(cur types.Address) bool {
	return m.registry.SupportsCurrency(cur)
}

// Currencies lists the alternate currencies.
func (m *Minter) Currencies() []currency.Entry {
	return m.currencies.List()
}

// LookupFeed returns the feed of cur.
func (m *Minter) LookupFeed(cur types.Address) (types.FeedID, error) {
	return m.currencies.LookupFeed(cur)
}

// Contract returns the collection metadata.
func (m *Minter) Contract() *metadata.Contract {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requireContract()
}
