package rpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/adminkey"
	"github.com/avatarnftme/anme-mint/internal/minter"
	"github.com/avatarnftme/anme-mint/internal/oracle"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

func parseAddress(field, s string) (types.Address, *Error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return addr, nil
}

// parseCurrency treats an empty string as the native currency.
func parseCurrency(s string) (types.Address, *Error) {
	if s == "" {
		return types.NativeCurrency, nil
	}
	return parseAddress("currency", s)
}

func parseAmount(s string) (*big.Int, *Error) {
	v, err := types.ParseAmount(s)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid amount: %v", err)}
	}
	return v, nil
}

// signedBy parses the paying account named by field and requires that it
// signed the request.
func signedBy(signer types.Address, field, s string) (types.Address, *Error) {
	addr, rpcErr := parseAddress(field, s)
	if rpcErr != nil {
		return types.Address{}, rpcErr
	}
	if addr != signer {
		return types.Address{}, &Error{
			Code:    CodeUnauthorized,
			Message: fmt.Sprintf("%s %s did not sign the request (signer %s)", field, addr, signer),
			Data:    minter.KindUnauthorized,
		}
	}
	return addr, nil
}

// ── Mint endpoints ──────────────────────────────────────────────────────

func (s *Server) handleMintGetInfo(_ *Request) (interface{}, *Error) {
	info := s.minter.Info()
	contract := s.minter.Contract()
	nativeFeed, _ := s.minter.LookupFeed(types.NativeCurrency)
	return &InfoResult{
		Name:                    contract.Name(),
		Symbol:                  contract.Symbol(),
		Count:                   info.Count,
		CurrentFee:              amountString(info.Pricing.CurrentFee),
		InitialPrice:            amountString(info.Pricing.BasePrice),
		IncrementThreshold:      info.Pricing.IncrementThreshold,
		MintsSinceLastIncrement: info.Pricing.MintsSinceLastIncrement,
		Collector:               info.Collector.String(),
		Spender:                 info.Spender.String(),
		NativeFeed:              nativeFeed.String(),
	}, nil
}

func (s *Server) handleMintQuote(ctx context.Context, req *Request) (interface{}, *Error) {
	var params CurrencyParam
	if len(req.Params) > 0 && string(req.Params) != "null" {
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
	}
	cur, rpcErr := parseCurrency(params.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	fee := s.minter.Fee()
	amount, err := s.minter.Quote(ctx, cur)
	if err != nil {
		return nil, engineError(err)
	}
	return &QuoteResult{
		Currency: cur.String(),
		Amount:   amount.String(),
		Fee:      fee.String(),
	}, nil
}

func (s *Server) handleMintNative(ctx context.Context, req *Request) (interface{}, *Error) {
	var params MintNativeParam
	signer, rpcErr := s.signedRequest(req, &params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := signedBy(signer, "owner", params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	res, err := s.minter.MintNative(ctx, minter.NativeRequest{
		Owner:      owner,
		Amount:     amount,
		Attributes: params.Attributes,
	})
	if err != nil {
		return nil, engineError(err)
	}
	return NewMintResult(res), nil
}

func (s *Server) handleMintWithCurrency(ctx context.Context, req *Request) (interface{}, *Error) {
	var params MintCurrencyParam
	signer, rpcErr := s.signedRequest(req, &params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payer, rpcErr := signedBy(signer, "payer", params.Payer)
	if rpcErr != nil {
		return nil, rpcErr
	}
	cur, rpcErr := parseAddress("currency", params.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	res, err := s.minter.MintWithCurrency(ctx, minter.CurrencyRequest{
		Currency:   cur,
		Amount:     amount,
		Payer:      payer,
		Attributes: params.Attributes,
	})
	if err != nil {
		return nil, engineError(err)
	}
	return NewMintResult(res), nil
}

// ── Item endpoints ──────────────────────────────────────────────────────

func (s *Server) handleItemGet(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	it, err := s.minter.Item(params.ID)
	if err != nil {
		return nil, engineError(err)
	}
	return NewItemResult(it), nil
}

func (s *Server) handleItemGetOwner(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, err := s.minter.Owner(params.ID)
	if err != nil {
		return nil, engineError(err)
	}
	return &OwnerResult{Owner: owner.String()}, nil
}

func (s *Server) handleItemGetURI(req *Request) (interface{}, *Error) {
	var params IDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	uri, err := s.minter.TokenURI(params.ID)
	if err != nil {
		return nil, engineError(err)
	}
	return &URIResult{URI: uri}, nil
}

// ── Currency endpoints ──────────────────────────────────────────────────

func (s *Server) handleCurrencyList(_ *Request) (interface{}, *Error) {
	entries := s.minter.Currencies()
	out := make([]CurrencyResult, 0, len(entries))
	for _, e := range entries {
		out = append(out, CurrencyResult{Currency: e.Currency.String(), Feed: e.Feed.String()})
	}
	return out, nil
}

func (s *Server) handleCurrencyGetFeed(req *Request) (interface{}, *Error) {
	var params CurrencyParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	cur, rpcErr := parseAddress("currency", params.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	feed, err := s.minter.LookupFeed(cur)
	if err != nil {
		return nil, engineError(err)
	}
	return &CurrencyResult{Currency: cur.String(), Feed: feed.String()}, nil
}

// ── Administrative endpoints ────────────────────────────────────────────

// signedRequest verifies the signature on a mint or administrative call,
// decodes the signed body into target and returns the signer. Whether an
// administrative signer is the administrator is decided by the minter.
func (s *Server) signedRequest(req *Request, target interface{}) (types.Address, *Error) {
	var params SignedParam
	if err := parseParams(req, &params); err != nil {
		return types.Address{}, err
	}
	caller, err := adminkey.Verify(req.Method, params.Request, params.Auth)
	if err != nil {
		return types.Address{}, &Error{Code: CodeUnauthorized, Message: err.Error(), Data: minter.KindUnauthorized}
	}
	if rpcErr := decodeParams(params.Request, target); rpcErr != nil {
		return types.Address{}, rpcErr
	}
	return caller, nil
}

func (s *Server) handleCurrencyAdd(ctx context.Context, req *Request) (interface{}, *Error) {
	var body AddCurrencyRequest
	caller, rpcErr := s.signedRequest(req, &body)
	if rpcErr != nil {
		return nil, rpcErr
	}
	cur, rpcErr := parseAddress("currency", body.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	feed, err := types.ParseFeedID(body.Feed)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid feed: %v", err)}
	}
	if err := s.minter.AddCurrencySupport(ctx, caller, cur, feed); err != nil {
		return nil, engineError(err)
	}
	return &CurrencyResult{Currency: cur.String(), Feed: feed.String()}, nil
}

func (s *Server) handleContractSetWebpage(req *Request) (interface{}, *Error) {
	var body SetWebpageRequest
	caller, rpcErr := s.signedRequest(req, &body)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.minter.SetWebpageURI(caller, body.URI); err != nil {
		return nil, engineError(err)
	}
	return &OKResult{OK: true}, nil
}

func (s *Server) handleContractSetURI(req *Request) (interface{}, *Error) {
	var body SetContractURIRequest
	caller, rpcErr := s.signedRequest(req, &body)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.minter.SetContractURI(caller, body.Description, body.Image, body.ExternalLink); err != nil {
		return nil, engineError(err)
	}
	return &OKResult{OK: true}, nil
}

// ── Contract endpoints ──────────────────────────────────────────────────

func (s *Server) handleContractGetInfo(_ *Request) (interface{}, *Error) {
	c := s.minter.Contract()
	info := c.Info()
	uri, err := c.ContractURI()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return &ContractResult{
		Name:         c.Name(),
		Symbol:       c.Symbol(),
		Webpage:      info.Webpage,
		Description:  info.Description,
		Image:        info.Image,
		ExternalLink: info.ExternalLink,
		ContractURI:  uri,
	}, nil
}

// ── Ledger endpoints (development) ──────────────────────────────────────

func (s *Server) requireLedger() *Error {
	if s.ledger == nil {
		return &Error{Code: CodeNotFound, Message: "development ledger not enabled"}
	}
	return nil
}

func (s *Server) handleLedgerCredit(req *Request) (interface{}, *Error) {
	if err := s.requireLedger(); err != nil {
		return nil, err
	}
	var params LedgerCreditParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	cur, rpcErr := parseCurrency(params.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.ledger.Credit(cur, account, amount); err != nil {
		return nil, engineError(err)
	}
	return &BalanceResult{
		Currency: cur.String(),
		Account:  account.String(),
		Balance:  s.ledger.BalanceOf(cur, account).String(),
	}, nil
}

func (s *Server) handleLedgerApprove(req *Request) (interface{}, *Error) {
	if err := s.requireLedger(); err != nil {
		return nil, err
	}
	var params LedgerApproveParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	cur, rpcErr := parseAddress("currency", params.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress("owner", params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := parseAddress("spender", params.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmount(params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.ledger.Approve(cur, owner, spender, amount); err != nil {
		return nil, engineError(err)
	}
	return &BalanceResult{
		Currency:  cur.String(),
		Account:   owner.String(),
		Balance:   s.ledger.BalanceOf(cur, owner).String(),
		Allowance: s.ledger.Allowance(cur, owner, spender).String(),
	}, nil
}

func (s *Server) handleLedgerGetBalance(req *Request) (interface{}, *Error) {
	if err := s.requireLedger(); err != nil {
		return nil, err
	}
	var params LedgerBalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	cur, rpcErr := parseCurrency(params.Currency)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	res := &BalanceResult{
		Currency: cur.String(),
		Account:  account.String(),
		Balance:  s.ledger.BalanceOf(cur, account).String(),
	}
	if params.Spender != "" {
		spender, rpcErr := parseAddress("spender", params.Spender)
		if rpcErr != nil {
			return nil, rpcErr
		}
		res.Allowance = s.ledger.Allowance(cur, account, spender).String()
	}
	return res, nil
}

// ── Price service ───────────────────────────────────────────────────────

func (s *Server) handleOracleLatestRound(ctx context.Context, req *Request) (interface{}, *Error) {
	if s.prices == nil {
		return nil, &Error{Code: CodeNotFound, Message: "price feeds not served by this node"}
	}
	var params oracle.RoundParams
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	round, err := s.prices.LatestRound(ctx, params.Feed)
	if err != nil {
		return nil, &Error{Code: CodePriceUnavailable, Message: err.Error(), Data: minter.KindOracleUnavailable}
	}
	return oracle.ResultFromRound(round), nil
}
