package events

import (
	"github.com/rs/zerolog"
)

// Logger writes every event to a zerolog logger.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a logging listener.
func NewLogger(l zerolog.Logger) *Logger {
	return &Logger{log: l}
}

// Handle implements Listener.
func (l *Logger) Handle(e Event) {
	ev := l.log.Info().Str("event", e.Name())
	switch e := e.(type) {
	case ItemMinted:
		ev = ev.Uint64("id", e.ID).Str("owner", e.Owner.String())
	case PaymentCollected:
		ev = ev.Str("amount", e.Amount.String()).
			Str("currency", e.Currency.String()).
			Str("payer", e.Payer.String()).
			Str("receipt", e.Receipt)
	case FeeIncremented:
		ev = ev.Str("new_fee", e.NewFee.String())
	case CurrencyRegistered:
		ev = ev.Str("currency", e.Currency.String()).Str("feed", e.Feed.String())
	case WebpageURIUpdated:
		ev = ev.Str("uri", e.URI)
	}
	ev.Msg("Event")
}
