package payment

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// JSON-RPC methods a settlement service exposes.
const (
	TransferMethod     = "funds_transfer"
	TransferFromMethod = "funds_transferFrom"
	RefundMethod       = "funds_refund"
)

// Error data values a settlement service reports for funding failures.
const (
	DataInsufficientAllowance = "InsufficientAllowance"
	DataInsufficientBalance   = "InsufficientBalance"
)

// TransferParams is the request of TransferMethod. Amount is a base-10
// integer string.
type TransferParams struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount string        `json:"amount"`
}

// TransferFromParams is the request of TransferFromMethod.
type TransferFromParams struct {
	Currency types.Address `json:"currency"`
	Spender  types.Address `json:"spender"`
	From     types.Address `json:"from"`
	To       types.Address `json:"to"`
	Amount   string        `json:"amount"`
}

// RefundParams is the request of RefundMethod.
type RefundParams struct {
	Currency types.Address `json:"currency"`
	From     types.Address `json:"from"`
	To       types.Address `json:"to"`
	Amount   string        `json:"amount"`
}

// RPCFunds settles payments through a remote service. Calls are bounded by
// the client's timeout and are never retried.
type RPCFunds struct {
	client *rpcclient.Client
}

// NewRPCFunds creates a Funds backed by client.
func NewRPCFunds(client *rpcclient.Client) *RPCFunds {
	return &RPCFunds{client: client}
}

// Transfer implements Funds.
func (f *RPCFunds) Transfer(ctx context.Context, from, to types.Address, amount *big.Int) error {
	err := f.client.CallContext(ctx, TransferMethod, TransferParams{
		From:   from,
		To:     to,
		Amount: amount.String(),
	}, nil)
	return fundsError(err)
}

// TransferFrom implements Funds.
func (f *RPCFunds) TransferFrom(ctx context.Context, cur, spender, from, to types.Address, amount *big.Int) error {
	err := f.client.CallContext(ctx, TransferFromMethod, TransferFromParams{
		Currency: cur,
		Spender:  spender,
		From:     from,
		To:       to,
		Amount:   amount.String(),
	}, nil)
	return fundsError(err)
}

// Refund implements Funds.
func (f *RPCFunds) Refund(ctx context.Context, cur, from, to types.Address, amount *big.Int) error {
	err := f.client.CallContext(ctx, RefundMethod, RefundParams{
		Currency: cur,
		From:     from,
		To:       to,
		Amount:   amount.String(),
	}, nil)
	return fundsError(err)
}

// fundsError maps remote funding failures onto the package errors.
func fundsError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *rpcclient.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Data {
		case DataInsufficientAllowance:
			return fmt.Errorf("%w: %s", ErrInsufficientAllowance, rpcErr.Message)
		case DataInsufficientBalance:
			return fmt.Errorf("%w: %s", ErrInsufficientBalance, rpcErr.Message)
		}
	}
	return fmt.Errorf("settlement: %w", err)
}
