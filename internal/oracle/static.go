package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avatarnftme/anme-mint/pkg/types"
)

// StaticFeed serves answers from an in-process table. It stands in for a
// price aggregator in development mode and in tests.
type StaticFeed struct {
	mu     sync.RWMutex
	rounds map[types.FeedID]Round
	errs   map[types.FeedID]error
}

// NewStaticFeed creates an empty table.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{
		rounds: make(map[types.FeedID]Round),
		errs:   make(map[types.FeedID]error),
	}
}

// Set records the answer for feed and clears any failure set with Fail.
func (s *StaticFeed) Set(feed types.FeedID, answer *big.Int, decimals uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[feed] = Round{
		Answer:    new(big.Int).Set(answer),
		Decimals:  decimals,
		UpdatedAt: time.Now(),
	}
	delete(s.errs, feed)
}

// Fail makes every read of feed return err until the next Set.
func (s *StaticFeed) Fail(feed types.FeedID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[feed] = err
}

// Feeds returns the ids with a recorded answer.
func (s *StaticFeed) Feeds() []types.FeedID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.FeedID, 0, len(s.rounds))
	for id := range s.rounds {
		out = append(out, id)
	}
	return out
}

// LatestRound implements Feed.
func (s *StaticFeed) LatestRound(_ context.Context, feed types.FeedID) (Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.errs[feed]; ok {
		return Round{}, err
	}
	r, ok := s.rounds[feed]
	if !ok {
		return Round{}, fmt.Errorf("no answer for feed %s", feed)
	}
	r.Answer = new(big.Int).Set(r.Answer)
	return r, nil
}
