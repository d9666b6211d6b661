package pricing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/storage"
)

var keyState = []byte("p/state")

// Store persists the pricing state.
type Store struct {
	db storage.DB
}

// NewStore creates a Store backed by db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

type record struct {
	BasePrice  *big.Int
	CurrentFee *big.Int
	Threshold  uint64
	Since      uint64
}

// Stage writes s into batch b.
func (s *Store) Stage(b storage.Batch, st State) error {
	data, err := storage.Encode(record{
		BasePrice:  st.BasePrice,
		CurrentFee: st.CurrentFee,
		Threshold:  st.IncrementThreshold,
		Since:      st.MintsSinceLastIncrement,
	})
	if err != nil {
		return err
	}
	return b.Put(keyState, data)
}

// Save writes st directly.
func (s *Store) Save(st State) error {
	b := storage.NewBatch(s.db)
	if err := s.Stage(b, st); err != nil {
		return err
	}
	return b.Commit()
}

// Load returns the stored state. The bool is false when nothing is stored.
func (s *Store) Load() (State, bool, error) {
	data, err := s.db.Get(keyState)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load pricing state: %w", err)
	}
	var rec record
	if err := storage.Decode(data, &rec); err != nil {
		return State{}, false, err
	}
	return State{
		BasePrice:               rec.BasePrice,
		CurrentFee:              rec.CurrentFee,
		IncrementThreshold:      rec.Threshold,
		MintsSinceLastIncrement: rec.Since,
	}, true, nil
}
