package rpc

import (
	"encoding/json"
	"testing"
)

// FuzzRPCRequestUnmarshal tests that arbitrary JSON does not panic
// when parsed as a JSON-RPC 2.0 request.
func FuzzRPCRequestUnmarshal(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"mint_getInfo","params":null,"id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"item_get","params":{"id":3},"id":"test"}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"currency_add","params":{"request":{"currency":"0x"},"auth":{}},"id":2}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"mint_native","params":{"request":{"owner":"0x","amount":"1"},"auth":{"pubkey":"00"}},"id":3}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"method":"","params":[]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		var params SignedParam
		_ = decodeParams(req.Params, &params)
		_ = req.Method
		_ = req.ID
	})
}

// FuzzMintParams tests that arbitrary mint params never panic in decoding
// and validation.
func FuzzMintParams(f *testing.F) {
	f.Add([]byte(`{"owner":"0x00000000000000000000000000000000000a11ce","amount":"50","attributes":{}}`))
	f.Add([]byte(`{"amount":"-1"}`))
	f.Add([]byte(`[]`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var params MintNativeParam
		if decodeParams(data, &params) != nil {
			return
		}
		if _, err := parseAmount(params.Amount); err != nil {
			return
		}
	})
}
