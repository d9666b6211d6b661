package minter

import (
	"errors"

	"github.com/avatarnftme/anme-mint/internal/currency"
	"github.com/avatarnftme/anme-mint/internal/oracle"
	"github.com/avatarnftme/anme-mint/internal/payment"
	"github.com/avatarnftme/anme-mint/internal/pricing"
	"github.com/avatarnftme/anme-mint/internal/registry"
)

// Minter errors.
var (
	ErrUnauthorized = errors.New("caller is not the administrator")
	ErrPersistence  = errors.New("persist mint")
)

// Error kinds reported to clients and metrics.
const (
	KindInsufficientPayment   = "InsufficientPayment"
	KindAmountMustBePositive  = "AmountMustBePositive"
	KindUnsupportedCurrency   = "UnsupportedCurrency"
	KindInsufficientAllowance = "InsufficientAllowance"
	KindInsufficientBalance   = "InsufficientBalance"
	KindOracleUnavailable     = "OracleUnavailable"
	KindInvalidPrice          = "InvalidPrice"
	KindUnknownItem           = "UnknownItem"
	KindUnauthorized          = "Unauthorized"
	KindInvalidAttributes     = "InvalidAttributes"
	KindNativeCurrency        = "NativeCurrency"
	KindInvalidFeed           = "InvalidFeed"
	KindPersistence           = "Persistence"
	KindInternal              = "Internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{payment.ErrInsufficientPayment, KindInsufficientPayment},
	{payment.ErrAmountMustBePositive, KindAmountMustBePositive},
	{currency.ErrUnsupportedCurrency, KindUnsupportedCurrency},
	{payment.ErrInsufficientAllowance, KindInsufficientAllowance},
	{payment.ErrInsufficientBalance, KindInsufficientBalance},
	{oracle.ErrOracleUnavailable, KindOracleUnavailable},
	{oracle.ErrInvalidPrice, KindInvalidPrice},
	{registry.ErrUnknownItem, KindUnknownItem},
	{ErrUnauthorized, KindUnauthorized},
	{registry.ErrInvalidAttributes, KindInvalidAttributes},
	{currency.ErrNativeCurrency, KindNativeCurrency},
	{currency.ErrInvalidFeed, KindInvalidFeed},
	{ErrPersistence, KindPersistence},
	{pricing.ErrStateMismatch, KindPersistence},
}

// Kind names the failure kind of err, or KindInternal when it is none of
// the known kinds.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
