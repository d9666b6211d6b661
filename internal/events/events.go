// Package events defines the observable records emitted by the minter and a
// synchronous bus that fans them out to listeners.
package events

import (
	"math/big"
	"sync"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Event is one observable record.
type Event interface {
	Name() string
}

// ItemMinted is emitted after an item is recorded.
type ItemMinted struct {
	Owner types.Address
	ID    uint64
}

// PaymentCollected is emitted after a payment reaches the collector.
type PaymentCollected struct {
	Amount   *big.Int
	Currency types.Address
	Payer    types.Address
	Receipt  string
}

// FeeIncremented is emitted when the fee doubles.
type FeeIncremented struct {
	NewFee *big.Int
}

// CurrencyRegistered is emitted when a currency is added or its feed replaced.
type CurrencyRegistered struct {
	Currency types.Address
	Feed     types.FeedID
}

// WebpageURIUpdated is emitted when the collection webpage changes.
type WebpageURIUpdated struct {
	URI string
}

// ContractURIUpdated is emitted when the collection metadata changes.
type ContractURIUpdated struct{}

func (ItemMinted) Name() string         { return "ItemMinted" }
func (PaymentCollected) Name() string   { return "PaymentCollected" }
func (FeeIncremented) Name() string     { return "FeeIncremented" }
func (CurrencyRegistered) Name() string { return "CurrencyRegistered" }
func (WebpageURIUpdated) Name() string  { return "WebpageURIUpdated" }
func (ContractURIUpdated) Name() string { return "ContractURIUpdated" }

// Listener receives events.
type Listener interface {
	Handle(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// Handle calls f(e).
func (f ListenerFunc) Handle(e Event) { f(e) }

// Bus delivers each event to every subscribed listener, in subscription
// order, on the caller's goroutine.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates a bus with the given listeners.
func NewBus(listeners ...Listener) *Bus {
	return &Bus{listeners: listeners}
}

// Subscribe adds l.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Emit delivers events in order.
func (b *Bus) Emit(evs ...Event) {
	b.mu.RLock()
	ls := b.listeners
	b.mu.RUnlock()
	for _, e := range evs {
		for _, l := range ls {
			l.Handle(e)
		}
	}
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Handle implements Listener.
func (r *Recorder) Handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the names of the recorded events in order.
func (r *Recorder) Names() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name()
	}
	return out
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
