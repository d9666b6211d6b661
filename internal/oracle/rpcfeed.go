package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// LatestRoundMethod is the JSON-RPC method price services expose.
const LatestRoundMethod = "oracle_latestRoundData"

// RoundParams is the request of LatestRoundMethod.
type RoundParams struct {
	Feed types.FeedID `json:"feed"`
}

// RoundResult is the response of LatestRoundMethod. Answer is a base-10
// integer string.
type RoundResult struct {
	Answer    string `json:"answer"`
	Decimals  uint8  `json:"decimals"`
	UpdatedAt int64  `json:"updated_at"`
}

// RPCFeed reads rounds from a remote price service. Calls are bounded by
// the client's timeout and are never retried.
type RPCFeed struct {
	client *rpcclient.Client
}

// NewRPCFeed creates a feed reading through client.
func NewRPCFeed(client *rpcclient.Client) *RPCFeed {
	return &RPCFeed{client: client}
}

// LatestRound implements Feed.
func (f *RPCFeed) LatestRound(ctx context.Context, feed types.FeedID) (Round, error) {
	var res RoundResult
	if err := f.client.CallContext(ctx, LatestRoundMethod, RoundParams{Feed: feed}, &res); err != nil {
		return Round{}, err
	}
	answer, ok := parseSigned(res.Answer)
	if !ok {
		return Round{}, fmt.Errorf("malformed answer %q", res.Answer)
	}
	return Round{
		Answer:    answer,
		Decimals:  res.Decimals,
		UpdatedAt: time.Unix(res.UpdatedAt, 0),
	}, nil
}

// ResultFromRound renders r for LatestRoundMethod responses.
func ResultFromRound(r Round) RoundResult {
	return RoundResult{
		Answer:    r.Answer.String(),
		Decimals:  r.Decimals,
		UpdatedAt: r.UpdatedAt.Unix(),
	}
}
