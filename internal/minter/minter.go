// Package minter is the single serialization point of the issuance engine.
// Every mint and every administrative change runs under one lock, so the
// fee schedule and the issuance counter always advance together.
package minter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avatarnftme/anme-mint/internal/currency"
	"github.com/avatarnftme/anme-mint/internal/events"
	alog "github.com/avatarnftme/anme-mint/internal/log"
	"github.com/avatarnftme/anme-mint/internal/metadata"
	"github.com/avatarnftme/anme-mint/internal/payment"
	"github.com/avatarnftme/anme-mint/internal/pricing"
	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/internal/storage"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/hashicorp/go-multierror"
)

// Payment paths.
const (
	PathNative   = "native"
	PathCurrency = "currency"
)

// URIFormatter renders the display URI of an item.
type URIFormatter interface {
	TokenURI(it registry.Item) (string, error)
}

// RejectionObserver is told about every rejected mint.
type RejectionObserver interface {
	ObserveRejection(path string, err error)
}

// Deps are the components a Minter drives. DB, Observer and Clock are
// optional.
type Deps struct {
	Currencies *currency.Registry
	Pricing    *pricing.Engine
	Payments   *payment.Validator
	Registry   *registry.Registry
	Contract   *metadata.Contract
	Auth       Authorizer
	URIs       URIFormatter
	Bus        *events.Bus

	// DB receives the item, counter and pricing state of every mint in one
	// atomic batch. Nil keeps state in memory only.
	DB       storage.DB
	Observer RejectionObserver
	Clock    func() time.Time
}

// NativeRequest mints an item paid in the native currency. Owner pays.
type NativeRequest struct {
	Owner      types.Address
	Amount     *big.Int
	Attributes registry.Attributes
}

// CurrencyRequest mints an item paid in an alternate currency. Payer
// becomes the owner.
type CurrencyRequest struct {
	Currency   types.Address
	Amount     *big.Int
	Payer      types.Address
	Attributes registry.Attributes
}

// Result describes a successful mint.
type Result struct {
	ID             uint64
	Receipt        *payment.Receipt
	FeeIncremented bool
	NewFee         *big.Int
	URI            string
}

// Minter sequences mints and administrative changes.
type Minter struct {
	mu sync.Mutex

	currencies *currency.Registry
	pricing    *pricing.Engine
	payments   *payment.Validator
	registry   *registry.Registry
	contract   *metadata.Contract
	auth       Authorizer
	uris       URIFormatter
	bus        *events.Bus
	observer   RejectionObserver
	now        func() time.Time

	db         storage.DB
	items      *registry.Store
	priceState *pricing.Store
}

// New creates a Minter.
func New(d Deps) (*Minter, error) {
	switch {
	case d.Currencies == nil, d.Pricing == nil, d.Payments == nil, d.Registry == nil:
		return nil, errors.New("minter: currencies, pricing, payments and registry are required")
	case d.Auth == nil:
		return nil, errors.New("minter: authorizer is required")
	}
	m := &Minter{
		currencies: d.Currencies,
		pricing:    d.Pricing,
		payments:   d.Payments,
		registry:   d.Registry,
		contract:   d.Contract,
		auth:       d.Auth,
		uris:       d.URIs,
		bus:        d.Bus,
		observer:   d.Observer,
		now:        d.Clock,
		db:         d.DB,
	}
	if m.bus == nil {
		m.bus = events.NewBus()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.db != nil {
		m.items = registry.NewStore(m.db)
		m.priceState = pricing.NewStore(m.db)
	}
	return m, nil
}

// MintNative collects a native payment from req.Owner and mints an item to
// them. Excess payment is kept.
func (m *Minter) MintNative(ctx context.Context, req NativeRequest) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.mint(ctx, req.Owner, req.Attributes, func() (*payment.Receipt, error) {
		return m.payments.CollectNative(ctx, req.Owner, req.Amount)
	})
	if err != nil {
		m.reject(PathNative, err)
		return nil, err
	}
	m.accept(PathNative, res)
	return res, nil
}

// MintWithCurrency collects req.Amount of req.Currency from req.Payer and
// mints an item to them.
func (m *Minter) MintWithCurrency(ctx context.Context, req CurrencyRequest) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.mint(ctx, req.Payer, req.Attributes, func() (*payment.Receipt, error) {
		return m.payments.CollectCurrency(ctx, req.Currency, req.Payer, req.Amount)
	})
	if err != nil {
		m.reject(PathCurrency, err)
		return nil, err
	}
	m.accept(PathCurrency, res)
	return res, nil
}

// mint runs one issuance. Nothing owned changes unless the storage batch
// commits, and a collected payment is refunded when it does not. Callers
// hold m.mu.
func (m *Minter) mint(ctx context.Context, owner types.Address, attrs registry.Attributes, collect func() (*payment.Receipt, error)) (*Result, error) {
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	receipt, err := collect()
	if err != nil {
		return nil, err
	}

	item := m.registry.Prepare(owner, attrs, m.now())
	next, incremented := m.pricing.Next()

	if m.db != nil {
		if err := m.persist(item, next); err != nil {
			perr := fmt.Errorf("%w: receipt %s: %v", ErrPersistence, receipt.ID, err)
			if rerr := m.payments.Refund(ctx, receipt); rerr != nil {
				alog.Minter.Error().Err(rerr).
					Str("receipt", receipt.ID).
					Str("payer", receipt.Payer.String()).
					Str("amount", receipt.Amount.String()).
					Msg("Mint was not persisted and the refund failed")
				return nil, multierror.Append(perr, fmt.Errorf("refund receipt %s: %w", receipt.ID, rerr))
			}
			alog.Minter.Warn().Err(err).
				Str("receipt", receipt.ID).
				Uint64("id", item.ID).
				Msg("Mint was not persisted, payment refunded")
			return nil, perr
		}
	}
	if err := m.registry.Commit(item); err != nil {
		return nil, err
	}
	m.pricing.Apply(next)

	evs := []events.Event{
		events.PaymentCollected{
			Amount:   new(big.Int).Set(receipt.Amount),
			Currency: receipt.Currency,
			Payer:    receipt.Payer,
			Receipt:  receipt.ID,
		},
		events.ItemMinted{Owner: owner, ID: item.ID},
	}
	if incremented {
		evs = append(evs, events.FeeIncremented{NewFee: new(big.Int).Set(next.CurrentFee)})
	}
	m.bus.Emit(evs...)

	res := &Result{
		ID:             item.ID,
		Receipt:        receipt,
		FeeIncremented: incremented,
		NewFee:         new(big.Int).Set(next.CurrentFee),
	}
	if m.uris != nil {
		uri, err := m.uris.TokenURI(item)
		if err != nil {
			alog.Minter.Warn().Err(err).Uint64("id", item.ID).Msg("Token URI rendering failed")
		}
		res.URI = uri
	}
	return res, nil
}

func (m *Minter) persist(item registry.Item, next pricing.State) error {
	b := storage.NewBatch(m.db)
	if err := m.items.Stage(b, item); err != nil {
		return err
	}
	if err := m.priceState.Stage(b, next); err != nil {
		return err
	}
	return b.Commit()
}

func (m *Minter) accept(path string, res *Result) {
	ev := alog.Minter.Info().
		Str("path", path).
		Uint64("id", res.ID).
		Str("paid", res.Receipt.Amount.String()).
		Str("fee", res.NewFee.String())
	if res.FeeIncremented {
		ev = ev.Bool("fee_incremented", true)
	}
	ev.Msg("Item minted")
}

func (m *Minter) reject(path string, err error) {
	alog.Minter.Debug().Err(err).Str("path", path).Str("kind", Kind(err)).Msg("Mint rejected")
	if m.observer != nil {
		m.observer.ObserveRejection(path, err)
	}
}

// AddCurrencySupport registers feed for currency. Only the administrator
// may call it.
func (m *Minter) AddCurrencySupport(_ context.Context, caller, cur types.Address, feed types.FeedID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.auth.Authorize(caller); err != nil {
		return err
	}
	changed, err := m.currencies.RegisterCurrency(cur, feed)
	if err != nil {
		return err
	}
	if changed {
		alog.Currency.Info().Str("currency", cur.String()).Str("feed", feed.String()).Msg("Currency registered")
		m.bus.Emit(events.CurrencyRegistered{Currency: cur, Feed: feed})
	}
	return nil
}

// SetWebpageURI replaces the official webpage. Administrator only.
func (m *Minter) SetWebpageURI(caller types.Address, uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.auth.Authorize(caller); err != nil {
		return err
	}
	if err := m.requireContract().SetWebpageURI(uri); err != nil {
		return err
	}
	m.bus.Emit(events.WebpageURIUpdated{URI: uri})
	return nil
}

// SetContractURI replaces the collection description, image and link.
// Administrator only.
func (m *Minter) SetContractURI(caller types.Address, description, image, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.auth.Authorize(caller); err != nil {
		return err
	}
	if err := m.requireContract().SetCollection(description, image, link); err != nil {
		return err
	}
	m.bus.Emit(events.ContractURIUpdated{})
	return nil
}

func (m *Minter) requireContract() *metadata.Contract {
	if m.contract == nil {
		m.contract, _ = metadata.NewContract("", "", m.payments.Collector(), nil)
	}
	return m.contract
}
