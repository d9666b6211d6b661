// Package adminkey manages operator keys: mnemonic backup, HD derivation,
// the encrypted key file, and the signatures carried by mint and
// administrative requests.
package adminkey

import (
	"errors"
	"fmt"

	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Derivation path m/44'/8889'/0'/0/index.
const (
	PurposeBIP44 = bip32.FirstHardenedChild + 44
	CoinTypeANME = bip32.FirstHardenedChild + 8889

	// MnemonicEntropyBits yields 24-word mnemonics.
	MnemonicEntropyBits = 256
)

// ErrInvalidMnemonic is returned for mnemonics failing the BIP-39 checks.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks word count, words and checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// FromMnemonic derives the administrator key at index from a mnemonic and
// optional passphrase.
func FromMnemonic(mnemonic, passphrase string, index uint32) (*crypto.PrivateKey, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	defer zero(seed)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range []uint32{PurposeBIP44, CoinTypeANME, bip32.FirstHardenedChild, 0, index} {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	// bip32 private keys carry a leading zero byte.
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
