package rpc

import (
	"encoding/json"
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/adminkey"
	"github.com/avatarnftme/anme-mint/internal/minter"
	"github.com/avatarnftme/anme-mint/internal/payment"
	"github.com/avatarnftme/anme-mint/internal/registry"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeUnauthorized   = -32001

	// Mint rejections. Data carries the failure kind.
	CodePaymentRejected     = -32010
	CodeUnsupportedCurrency = -32011
	CodePriceUnavailable    = -32012
)

// Request is a JSON-RPC 2.0 request. Params are kept raw so administrative
// calls can be verified over the exact bytes that were signed.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// Amounts travel as base-10 integer strings in base units.

// IDParam is used by the item_* endpoints.
type IDParam struct {
	ID uint64 `json:"id"`
}

// CurrencyParam is used by mint_quote and currency_getFeed. mint_quote
// treats an empty currency as the native one.
type CurrencyParam struct {
	Currency string `json:"currency"`
}

// MintNativeParam is the signed body of mint_native. Owner pays, receives
// the item and must be the signer.
type MintNativeParam struct {
	Owner      string              `json:"owner" validate:"required"`
	Amount     string              `json:"amount" validate:"required,numeric"`
	Attributes registry.Attributes `json:"attributes" validate:"-"`
}

// MintCurrencyParam is the signed body of mint_withCurrency. Payer receives
// the item and must be the signer.
type MintCurrencyParam struct {
	Currency   string              `json:"currency" validate:"required"`
	Payer      string              `json:"payer" validate:"required"`
	Amount     string              `json:"amount" validate:"required,numeric"`
	Attributes registry.Attributes `json:"attributes" validate:"-"`
}

// SignedParam wraps every mint and administrative request. Auth signs
// Request for the called method.
type SignedParam struct {
	Request json.RawMessage `json:"request" validate:"required"`
	Auth    adminkey.Auth   `json:"auth"`
}

// AddCurrencyRequest is the signed body of currency_add.
type AddCurrencyRequest struct {
	Currency string `json:"currency" validate:"required"`
	Feed     string `json:"feed" validate:"required"`
}

// SetWebpageRequest is the signed body of contract_setWebpage.
type SetWebpageRequest struct {
	URI string `json:"uri" validate:"required,url,max=512"`
}

// SetContractURIRequest is the signed body of contract_setURI.
type SetContractURIRequest struct {
	Description  string `json:"description" validate:"max=2048"`
	Image        string `json:"image" validate:"omitempty,url,max=512"`
	ExternalLink string `json:"external_link" validate:"omitempty,url,max=512"`
}

// LedgerCreditParam is used by ledger_credit.
type LedgerCreditParam struct {
	Currency string `json:"currency"`
	Account  string `json:"account" validate:"required"`
	Amount   string `json:"amount" validate:"required,numeric"`
}

// LedgerApproveParam is used by ledger_approve.
type LedgerApproveParam struct {
	Currency string `json:"currency" validate:"required"`
	Owner    string `json:"owner" validate:"required"`
	Spender  string `json:"spender" validate:"required"`
	Amount   string `json:"amount" validate:"required,numeric"`
}

// LedgerBalanceParam is used by ledger_getBalance. Spender is optional and
// adds the allowance to the result.
type LedgerBalanceParam struct {
	Currency string `json:"currency"`
	Account  string `json:"account" validate:"required"`
	Spender  string `json:"spender,omitempty"`
}

// ── Result types ────────────────────────────────────────────────────────

// InfoResult is returned by mint_getInfo.
type InfoResult struct {
	Name                    string `json:"name"`
	Symbol                  string `json:"symbol"`
	Count                   uint64 `json:"count"`
	CurrentFee              string `json:"current_fee"`
	InitialPrice            string `json:"initial_price"`
	IncrementThreshold      uint64 `json:"increment_threshold"`
	MintsSinceLastIncrement uint64 `json:"mints_since_last_increment"`
	Collector               string `json:"collector"`
	Spender                 string `json:"spender"`
	NativeFeed              string `json:"native_feed"`
}

// QuoteResult is returned by mint_quote.
type QuoteResult struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Fee      string `json:"fee"`
}

// ReceiptResult describes a collected payment.
type ReceiptResult struct {
	ID       string `json:"id"`
	Payer    string `json:"payer"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Required string `json:"required"`
}

// MintResult is returned by mint_native and mint_withCurrency.
type MintResult struct {
	ID             uint64        `json:"id"`
	Receipt        ReceiptResult `json:"receipt"`
	FeeIncremented bool          `json:"fee_incremented"`
	NextFee        string        `json:"next_fee"`
	TokenURI       string        `json:"token_uri,omitempty"`
}

// ItemResult is returned by item_get.
type ItemResult struct {
	ID         uint64              `json:"id"`
	Owner      string              `json:"owner"`
	Attributes registry.Attributes `json:"attributes"`
	MintedAt   int64               `json:"minted_at"`
}

// OwnerResult is returned by item_getOwner.
type OwnerResult struct {
	Owner string `json:"owner"`
}

// URIResult is returned by item_getURI.
type URIResult struct {
	URI string `json:"uri"`
}

// CurrencyResult pairs a currency with its feed.
type CurrencyResult struct {
	Currency string `json:"currency"`
	Feed     string `json:"feed"`
}

// ContractResult is returned by contract_getInfo.
type ContractResult struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Webpage      string `json:"webpage"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	ExternalLink string `json:"external_link"`
	ContractURI  string `json:"contract_uri"`
}

// BalanceResult is returned by ledger_getBalance.
type BalanceResult struct {
	Currency  string `json:"currency"`
	Account   string `json:"account"`
	Balance   string `json:"balance"`
	Allowance string `json:"allowance,omitempty"`
}

// OKResult acknowledges state-changing calls with no other output.
type OKResult struct {
	OK bool `json:"ok"`
}

// ── Conversions ─────────────────────────────────────────────────────────

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewReceiptResult renders a payment receipt.
func NewReceiptResult(r *payment.Receipt) ReceiptResult {
	if r == nil {
		return ReceiptResult{}
	}
	return ReceiptResult{
		ID:       r.ID,
		Payer:    r.Payer.String(),
		Currency: r.Currency.String(),
		Amount:   amountString(r.Amount),
		Required: amountString(r.Required),
	}
}

// NewMintResult renders a successful mint.
func NewMintResult(r *minter.Result) *MintResult {
	return &MintResult{
		ID:             r.ID,
		Receipt:        NewReceiptResult(r.Receipt),
		FeeIncremented: r.FeeIncremented,
		NextFee:        amountString(r.NewFee),
		TokenURI:       r.URI,
	}
}

// NewItemResult renders an item.
func NewItemResult(it registry.Item) *ItemResult {
	return &ItemResult{
		ID:         it.ID,
		Owner:      it.Owner.String(),
		Attributes: it.Attributes,
		MintedAt:   it.MintedAt.Unix(),
	}
}
