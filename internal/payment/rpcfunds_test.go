package payment

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fundsCall struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// settlementServer answers every call with errData, or success when empty.
func settlementServer(t *testing.T, errData string, seen *[]fundsCall) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call fundsCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("decode request: %v", err)
		}
		*seen = append(*seen, call)
		w.Header().Set("Content-Type", "application/json")
		if errData != "" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      1,
				"error":   map[string]interface{}{"code": -32010, "message": "rejected", "data": errData},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "result": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRPCFunds_TransferFrom(t *testing.T) {
	var seen []fundsCall
	srv := settlementServer(t, "", &seen)
	funds := NewRPCFunds(rpcclient.New(srv.URL))

	err := funds.TransferFrom(context.Background(), usdc, spender, alice, collector, big.NewInt(100_000_000))
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, TransferFromMethod, seen[0].Method)

	var params TransferFromParams
	require.NoError(t, json.Unmarshal(seen[0].Params, &params))
	assert.Equal(t, usdc, params.Currency)
	assert.Equal(t, spender, params.Spender)
	assert.Equal(t, alice, params.From)
	assert.Equal(t, collector, params.To)
	assert.Equal(t, "100000000", params.Amount)
}

func TestRPCFunds_Transfer(t *testing.T) {
	var seen []fundsCall
	srv := settlementServer(t, "", &seen)
	funds := NewRPCFunds(rpcclient.New(srv.URL))

	require.NoError(t, funds.Transfer(context.Background(), alice, collector, big.NewInt(50)))
	require.Len(t, seen, 1)
	assert.Equal(t, TransferMethod, seen[0].Method)
}

func TestRPCFunds_Refund(t *testing.T) {
	var seen []fundsCall
	srv := settlementServer(t, "", &seen)
	funds := NewRPCFunds(rpcclient.New(srv.URL))

	require.NoError(t, funds.Refund(context.Background(), usdc, collector, alice, big.NewInt(75)))
	require.Len(t, seen, 1)
	assert.Equal(t, RefundMethod, seen[0].Method)

	var params RefundParams
	require.NoError(t, json.Unmarshal(seen[0].Params, &params))
	assert.Equal(t, usdc, params.Currency)
	assert.Equal(t, collector, params.From)
	assert.Equal(t, alice, params.To)
	assert.Equal(t, "75", params.Amount)
}

func TestRPCFunds_ErrorMapping(t *testing.T) {
	tests := []struct {
		data string
		want error
	}{
		{DataInsufficientAllowance, ErrInsufficientAllowance},
		{DataInsufficientBalance, ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			var seen []fundsCall
			srv := settlementServer(t, tt.data, &seen)
			funds := NewRPCFunds(rpcclient.New(srv.URL))

			err := funds.TransferFrom(context.Background(), usdc, spender, alice, collector, big.NewInt(1))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRPCFunds_OtherErrors(t *testing.T) {
	var seen []fundsCall
	srv := settlementServer(t, "Frozen", &seen)
	funds := NewRPCFunds(rpcclient.New(srv.URL))

	err := funds.Transfer(context.Background(), alice, collector, big.NewInt(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientBalance)
	assert.NotErrorIs(t, err, ErrInsufficientAllowance)
	assert.Contains(t, err.Error(), "settlement")
}
