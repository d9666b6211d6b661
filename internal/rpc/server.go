// Package rpc implements the JSON-RPC 2.0 API server of anmed.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/avatarnftme/anme-mint/config"
	alog "github.com/avatarnftme/anme-mint/internal/log"
	"github.com/avatarnftme/anme-mint/internal/minter"
	"github.com/avatarnftme/anme-mint/internal/oracle"
	"github.com/avatarnftme/anme-mint/internal/payment"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

var validate = validator.New()

// Server is the JSON-RPC 2.0 HTTP server.
type Server struct {
	addr        string
	minter      *minter.Minter
	ledger      *payment.Ledger // For ledger_* (nil = disabled).
	prices      oracle.Feed     // For oracle_latestRoundData (nil = disabled).
	server      *http.Server
	logger      zerolog.Logger
	ln          net.Listener
	allowedNets []*net.IPNet // Empty = allow all.
	corsOrigins []string     // Empty = no CORS headers.
}

// New creates a new RPC server. The rpcCfg parameter controls IP filtering
// and CORS. A zero-value RPCConfig allows all IPs and disables CORS.
func New(addr string, m *minter.Minter, rpcCfg ...config.RPCConfig) *Server {
	s := &Server{
		addr:   addr,
		minter: m,
		logger: alog.RPC,
	}

	if len(rpcCfg) > 0 {
		s.allowedNets = parseAllowedIPs(rpcCfg[0].AllowedIPs)
		s.corsOrigins = rpcCfg[0].CORSOrigins
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
	}

	return s
}

// parseAllowedIPs converts string IP/CIDR entries into net.IPNet.
func parseAllowedIPs(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		_, ipNet, err := net.ParseCIDR(entry)
		if err == nil {
			nets = append(nets, ipNet)
			continue
		}
		// Try as a single IP (add /32 or /128).
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("RPC server error")
		}
	}()

	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// SetLedger enables the ledger_* development endpoints.
func (s *Server) SetLedger(l *payment.Ledger) {
	s.ledger = l
}

// SetPriceFeed serves feed as oracle_latestRoundData, so anmed can act as
// the price service of another instance.
func (s *Server) SetPriceFeed(feed oracle.Feed) {
	s.prices = feed
}

// handleRequest is the main HTTP handler for JSON-RPC requests.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	// IP filtering.
	if len(s.allowedNets) > 0 {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ip := net.ParseIP(host)
		if ip == nil || !s.isIPAllowed(ip) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	// CORS headers.
	s.setCORSHeaders(w, r)

	// Handle CORS preflight.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, nil, CodeInvalidRequest, "only POST method is allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeError(w, nil, CodeParseError, "failed to read request body")
		return
	}
	if len(body) > maxBodySize {
		writeError(w, nil, CodeInvalidRequest, "request body too large")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(r.Context(), &req)
	if rpcErr != nil {
		s.logger.Debug().
			Str("method", req.Method).
			Int("code", rpcErr.Code).
			Str("error", rpcErr.Message).
			Msg("RPC call failed")
		writeJSON(w, Response{
			JSONRPC: "2.0",
			Error:   rpcErr,
			ID:      req.ID,
		})
		return
	}

	writeJSON(w, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	})
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, req *Request) (interface{}, *Error) {
	switch req.Method {
	case "mint_getInfo":
		return s.handleMintGetInfo(req)
	case "mint_quote":
		return s.handleMintQuote(ctx, req)
	case "mint_native":
		return s.handleMintNative(ctx, req)
	case "mint_withCurrency":
		return s.handleMintWithCurrency(ctx, req)
	case "item_get":
		return s.handleItemGet(req)
	case "item_getOwner":
		return s.handleItemGetOwner(req)
	case "item_getURI":
		return s.handleItemGetURI(req)
	case "currency_list":
		return s.handleCurrencyList(req)
	case "currency_getFeed":
		return s.handleCurrencyGetFeed(req)
	case "currency_add":
		return s.handleCurrencyAdd(ctx, req)
	case "contract_getInfo":
		return s.handleContractGetInfo(req)
	case "contract_setWebpage":
		return s.handleContractSetWebpage(req)
	case "contract_setURI":
		return s.handleContractSetURI(req)
	case "ledger_credit":
		return s.handleLedgerCredit(req)
	case "ledger_approve":
		return s.handleLedgerApprove(req)
	case "ledger_getBalance":
		return s.handleLedgerGetBalance(req)
	case oracle.LatestRoundMethod:
		return s.handleOracleLatestRound(ctx, req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

// writeJSON writes a JSON-RPC response.
func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes a JSON-RPC error response.
func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	writeJSON(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	})
}

// isIPAllowed checks if the IP is in the allowed networks list.
func (s *Server) isIPAllowed(ip net.IP) bool {
	for _, n := range s.allowedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// setCORSHeaders adds CORS headers based on the configured origins.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := false
	for _, o := range s.corsOrigins {
		if o == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			allowed = true
			break
		}
		if o == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			allowed = true
			break
		}
	}

	if allowed {
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}
}

// parseParams unmarshals the request params into target and runs its
// validation tags.
func parseParams(req *Request, target interface{}) *Error {
	if len(req.Params) == 0 || string(req.Params) == "null" {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	return decodeParams(req.Params, target)
}

func decodeParams(data []byte, target interface{}) *Error {
	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %s failed %q", fe.Field(), fe.Tag())}
		}
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

// engineError maps an engine failure to a JSON-RPC error carrying its kind.
func engineError(err error) *Error {
	kind := minter.Kind(err)
	return &Error{Code: codeForKind(kind), Message: err.Error(), Data: kind}
}

func codeForKind(kind string) int {
	switch kind {
	case minter.KindInsufficientPayment, minter.KindAmountMustBePositive,
		minter.KindInsufficientAllowance, minter.KindInsufficientBalance:
		return CodePaymentRejected
	case minter.KindUnsupportedCurrency:
		return CodeUnsupportedCurrency
	case minter.KindOracleUnavailable, minter.KindInvalidPrice:
		return CodePriceUnavailable
	case minter.KindUnknownItem:
		return CodeNotFound
	case minter.KindUnauthorized:
		return CodeUnauthorized
	case minter.KindInvalidAttributes, minter.KindNativeCurrency, minter.KindInvalidFeed:
		return CodeInvalidParams
	default:
		return CodeInternalError
	}
}
