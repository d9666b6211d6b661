package registry

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/avatarnftme/anme-mint/internal/storage"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

var (
	prefixItem = []byte("i/")
	keyCount   = []byte("i/count")
)

// Store persists items and the issuance counter.
type Store struct {
	db storage.DB
}

// NewStore creates a Store backed by db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

type itemRecord struct {
	Owner      types.Address
	Attributes Attributes
	MintedAt   int64
}

func itemKey(id uint64) []byte {
	key := make([]byte, len(prefixItem)+8)
	copy(key, prefixItem)
	binary.BigEndian.PutUint64(key[len(prefixItem):], id)
	return key
}

// Stage writes it and the counter that follows it into b.
func (s *Store) Stage(b storage.Batch, it Item) error {
	data, err := storage.Encode(itemRecord{
		Owner:      it.Owner,
		Attributes: it.Attributes,
		MintedAt:   it.MintedAt.Unix(),
	})
	if err != nil {
		return err
	}
	if err := b.Put(itemKey(it.ID), data); err != nil {
		return err
	}
	var count [8]byte
	binary.BigEndian.PutUint64(count[:], it.ID+1)
	return b.Put(keyCount, count[:])
}

// Load returns the stored counter and items.
func (s *Store) Load() (uint64, []Item, error) {
	var count uint64
	raw, err := s.db.Get(keyCount)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return 0, nil, fmt.Errorf("load item counter: %w", err)
	case len(raw) != 8:
		return 0, nil, fmt.Errorf("malformed item counter %x", raw)
	default:
		count = binary.BigEndian.Uint64(raw)
	}

	var items []Item
	err = s.db.ForEach(prefixItem, func(key, value []byte) error {
		if bytes.Equal(key, keyCount) {
			return nil
		}
		if len(key) != len(prefixItem)+8 {
			return fmt.Errorf("malformed item key %x", key)
		}
		var rec itemRecord
		if err := storage.Decode(value, &rec); err != nil {
			return err
		}
		items = append(items, Item{
			ID:         binary.BigEndian.Uint64(key[len(prefixItem):]),
			Owner:      rec.Owner,
			Attributes: rec.Attributes,
			MintedAt:   time.Unix(rec.MintedAt, 0).UTC(),
		})
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("load items: %w", err)
	}
	return count, items, nil
}
