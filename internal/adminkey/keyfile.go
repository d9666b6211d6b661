package adminkey

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/avatarnftme/anme-mint/pkg/types"
)

// Key file errors.
var (
	ErrWrongPassword = errors.New("wrong password or corrupted key file")
	ErrKeyExists     = errors.New("key file already exists")
)

const fileVersion = 1

type keyFile struct {
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	Address   types.Address `json:"address"`
	Sealed    []byte        `json:"sealed_key"`
}

// Save writes key encrypted under password to path. Existing files are
// never overwritten.
func Save(path string, key *crypto.PrivateKey, password []byte, p Params) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrKeyExists, path)
	}
	raw := key.Serialize()
	defer zero(raw)

	sealed, err := seal(raw, password, p)
	if err != nil {
		return fmt.Errorf("encrypt key: %w", err)
	}
	data, err := json.MarshalIndent(keyFile{
		Version:   fileVersion,
		CreatedAt: time.Now().UTC(),
		Address:   key.Address(),
		Sealed:    sealed,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// Load decrypts the key stored at path.
func Load(path string, password []byte) (*crypto.PrivateKey, error) {
	kf, err := readFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := open(kf.Sealed, password)
	if err != nil {
		return nil, err
	}
	defer zero(raw)

	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	if key.Address() != kf.Address {
		return nil, fmt.Errorf("key file address %s does not match key %s", kf.Address, key.Address())
	}
	return key, nil
}

// ReadAddress returns the address recorded in the key file without
// decrypting it.
func ReadAddress(path string) (types.Address, error) {
	kf, err := readFile(path)
	if err != nil {
		return types.Address{}, err
	}
	return kf.Address, nil
}

func readFile(path string) (*keyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	if kf.Version != fileVersion {
		return nil, fmt.Errorf("unsupported key file version: %d", kf.Version)
	}
	return &kf, nil
}
