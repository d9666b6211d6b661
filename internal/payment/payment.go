// Package payment validates and collects mint payments in the native
// currency or in a registered alternate currency.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/currency"
	alog "github.com/avatarnftme/anme-mint/internal/log"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"go.jetify.com/typeid/v2"
)

// Payment errors. Allowance and balance failures come from the Funds
// collaborator and are returned as reported.
var (
	ErrInsufficientPayment   = errors.New("insufficient payment")
	ErrAmountMustBePositive  = errors.New("amount must be positive")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientBalance   = errors.New("insufficient balance")
)

// ReceiptPrefix is the type prefix of receipt ids.
const ReceiptPrefix = "pay"

// Funds moves value between accounts.
type Funds interface {
	// Transfer moves native value attached to a request.
	Transfer(ctx context.Context, from, to types.Address, amount *big.Int) error
	// TransferFrom moves amount of currency from one account to another on
	// behalf of spender, consuming spender's allowance. Allowance is checked
	// before balance.
	TransferFrom(ctx context.Context, cur, spender, from, to types.Address, amount *big.Int) error
	// Refund returns amount of currency held by from to to. It only undoes
	// a collection whose mint could not be recorded.
	Refund(ctx context.Context, cur, from, to types.Address, amount *big.Int) error
}

// Pricer supplies the current fee and its conversion.
type Pricer interface {
	CurrentFee() *big.Int
	QuoteInCurrency(ctx context.Context, cur types.Address, amountNative *big.Int) (*big.Int, error)
}

// FeedLookup reports whether a currency is registered.
type FeedLookup interface {
	LookupFeed(cur types.Address) (types.FeedID, error)
}

// Receipt records a collected payment.
type Receipt struct {
	ID       string        `json:"id"`
	Payer    types.Address `json:"payer"`
	Currency types.Address `json:"currency"`
	Amount   *big.Int      `json:"amount"`
	Required *big.Int      `json:"required"`
}

// Validator checks payments against the current fee and collects them into
// the collector account. It never advances pricing.
type Validator struct {
	pricer    Pricer
	feeds     FeedLookup
	funds     Funds
	collector types.Address
	spender   types.Address
}

// NewValidator creates a validator. spender is the identity payers approve
// for alternate currency transfers.
func NewValidator(pricer Pricer, feeds FeedLookup, funds Funds, collector, spender types.Address) *Validator {
	return &Validator{
		pricer:    pricer,
		feeds:     feeds,
		funds:     funds,
		collector: collector,
		spender:   spender,
	}
}

// Collector returns the account that receives payments.
func (v *Validator) Collector() types.Address { return v.collector }

// Spender returns the identity payers must approve.
func (v *Validator) Spender() types.Address { return v.spender }

// CollectNative collects a native payment. The whole tendered amount is
// transferred; any excess over the fee is kept, only a shortfall is
// rejected.
func (v *Validator) CollectNative(ctx context.Context, payer types.Address, tendered *big.Int) (*Receipt, error) {
	required := v.pricer.CurrentFee()
	if tendered == nil || tendered.Cmp(required) < 0 {
		return nil, fmt.Errorf("%w: required %s, tendered %s", ErrInsufficientPayment, required, tendered)
	}
	if err := v.funds.Transfer(ctx, payer, v.collector, tendered); err != nil {
		return nil, err
	}
	return v.receipt(payer, types.NativeCurrency, tendered, required)
}

// CollectCurrency collects a payment in an alternate currency. Checks run
// in a fixed order: registration, zero amount, quoted requirement, then the
// transfer itself.
func (v *Validator) CollectCurrency(ctx context.Context, cur, payer types.Address, amount *big.Int) (*Receipt, error) {
	if cur == types.NativeCurrency {
		return nil, &currency.UnsupportedCurrencyError{Currency: cur}
	}
	if _, err := v.feeds.LookupFeed(cur); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrAmountMustBePositive
	}
	required, err := v.pricer.QuoteInCurrency(ctx, cur, v.pricer.CurrentFee())
	if err != nil {
		return nil, err
	}
	if amount.Cmp(required) < 0 {
		return nil, fmt.Errorf("%w: currency %s required %s, tendered %s", ErrInsufficientPayment, cur, required, amount)
	}
	if err := v.funds.TransferFrom(ctx, cur, v.spender, payer, v.collector, amount); err != nil {
		return nil, err
	}
	return v.receipt(payer, cur, amount, required)
}

// Refund returns a collected payment to its payer.
func (v *Validator) Refund(ctx context.Context, r *Receipt) error {
	if r.Currency == types.NativeCurrency {
		return v.funds.Transfer(ctx, v.collector, r.Payer, r.Amount)
	}
	return v.funds.Refund(ctx, r.Currency, v.collector, r.Payer, r.Amount)
}

func (v *Validator) receipt(payer, cur types.Address, amount, required *big.Int) (*Receipt, error) {
	tid, err := typeid.Generate(ReceiptPrefix)
	if err != nil {
		return nil, fmt.Errorf("receipt id: %w", err)
	}
	r := &Receipt{
		ID:       tid.String(),
		Payer:    payer,
		Currency: cur,
		Amount:   new(big.Int).Set(amount),
		Required: new(big.Int).Set(required),
	}
	alog.Payment.Debug().
		Str("receipt", r.ID).
		Str("payer", payer.String()).
		Str("currency", cur.String()).
		Str("amount", amount.String()).
		Msg("Payment collected")
	return r, nil
}
