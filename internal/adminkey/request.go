package adminkey

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// ErrBadSignature is returned when a signed request fails
// verification.
var ErrBadSignature = errors.New("invalid request signature")

// Auth proves that the holder of PubKey issued a request.
type Auth struct {
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// Digest is the message signed for method with the exact request bytes.
func Digest(method string, request []byte) types.Hash {
	return crypto.HashParts([]byte(method), request)
}

// Sign authorizes request for method with key.
func Sign(key crypto.Signer, method string, request []byte) (Auth, error) {
	d := Digest(method, request)
	sig, err := key.Sign(d[:])
	if err != nil {
		return Auth{}, fmt.Errorf("sign request: %w", err)
	}
	return Auth{
		PubKey:    hex.EncodeToString(key.PublicKey()),
		Signature: hex.EncodeToString(sig),
	}, nil
}

// Verify checks a and returns the address of the signer.
func Verify(method string, request []byte, a Auth) (types.Address, error) {
	pub, err := hex.DecodeString(a.PubKey)
	if err != nil || len(pub) == 0 {
		return types.Address{}, fmt.Errorf("%w: bad pubkey", ErrBadSignature)
	}
	sig, err := hex.DecodeString(a.Signature)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: bad signature encoding", ErrBadSignature)
	}
	d := Digest(method, request)
	if !crypto.VerifySignature(d[:], sig, pub) {
		return types.Address{}, ErrBadSignature
	}
	return crypto.AddressFromPubKey(pub), nil
}
