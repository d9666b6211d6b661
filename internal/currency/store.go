package currency

import (
	"fmt"

	"github.com/avatarnftme/anme-mint/internal/storage"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

var prefixCurrency = []byte("c/")

// Store persists currency registrations.
type Store struct {
	db storage.DB
}

// NewStore creates a Store backed by db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

type record struct {
	Feed types.FeedID
}

func currencyKey(c types.Address) []byte {
	key := make([]byte, len(prefixCurrency)+types.AddressSize)
	copy(key, prefixCurrency)
	copy(key[len(prefixCurrency):], c[:])
	return key
}

// Put stores an entry.
func (s *Store) Put(e Entry) error {
	data, err := storage.Encode(record{Feed: e.Feed})
	if err != nil {
		return err
	}
	if err := s.db.Put(currencyKey(e.Currency), data); err != nil {
		return fmt.Errorf("store currency %s: %w", e.Currency, err)
	}
	return nil
}

// Load returns every stored entry.
func (s *Store) Load() ([]Entry, error) {
	var out []Entry
	err := s.db.ForEach(prefixCurrency, func(key, value []byte) error {
		if len(key) != len(prefixCurrency)+types.AddressSize {
			return fmt.Errorf("malformed currency key %x", key)
		}
		var rec record
		if err := storage.Decode(value, &rec); err != nil {
			return err
		}
		var e Entry
		copy(e.Currency[:], key[len(prefixCurrency):])
		e.Feed = rec.Feed
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", err)
	}
	return out, nil
}
