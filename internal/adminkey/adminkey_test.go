package adminkey

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avatarnftme/anme-mint/pkg/crypto"
)

// BIP-39 test vector mnemonic.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fastParams keeps Argon2 cheap in tests.
func fastParams() Params {
	return Params{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestGenerateMnemonic(t *testing.T) {
	m, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if words := strings.Fields(m); len(words) != 24 {
		t.Errorf("got %d words, want 24", len(words))
	}
	if !ValidateMnemonic(m) {
		t.Error("generated mnemonic does not validate")
	}
	if ValidateMnemonic("abandon abandon abandon") {
		t.Error("short mnemonic validated")
	}
}

func TestFromMnemonic_Deterministic(t *testing.T) {
	k1, err := FromMnemonic(testMnemonic, "", 0)
	if err != nil {
		t.Fatalf("FromMnemonic: %v", err)
	}
	k2, _ := FromMnemonic(testMnemonic, "", 0)
	if k1.Address() != k2.Address() {
		t.Error("same mnemonic derived different keys")
	}

	other, _ := FromMnemonic(testMnemonic, "", 1)
	if other.Address() == k1.Address() {
		t.Error("index 1 derived the same key as index 0")
	}
	withPass, _ := FromMnemonic(testMnemonic, "TREZOR", 0)
	if withPass.Address() == k1.Address() {
		t.Error("passphrase did not change the key")
	}

	if _, err := FromMnemonic("not a mnemonic", "", 0); !errors.Is(err, ErrInvalidMnemonic) {
		t.Errorf("invalid mnemonic error = %v", err)
	}
}

func TestSealOpen(t *testing.T) {
	secret := []byte("32-byte-secret-scalar-material!!")
	sealed, err := seal(secret, []byte("pw"), fastParams())
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	plain, err := open(sealed, []byte("pw"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(plain, secret) {
		t.Error("round trip mismatch")
	}

	if _, err := open(sealed, []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password error = %v", err)
	}

	tampered := append([]byte{}, sealed...)
	tampered[saltSize] ^= 0x01 // memory cost
	if _, err := open(tampered, []byte("pw")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("tampered header error = %v", err)
	}

	if _, err := open(sealed[:10], []byte("pw")); err == nil {
		t.Error("short input accepted")
	}
}

func TestKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "admin.key")
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	if err := Save(path, key, []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(path, key, []byte("pw"), fastParams()); !errors.Is(err, ErrKeyExists) {
		t.Errorf("second Save error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key file mode = %v", info.Mode().Perm())
	}

	addr, err := ReadAddress(path)
	if err != nil || addr != key.Address() {
		t.Errorf("ReadAddress = %s, %v", addr, err)
	}

	loaded, err := Load(path, []byte("pw"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(loaded.Serialize(), key.Serialize()) {
		t.Error("loaded key differs")
	}
	if _, err := Load(path, []byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password error = %v", err)
	}
}

func TestSignVerify(t *testing.T) {
	key, _ := FromMnemonic(testMnemonic, "", 0)
	req := []byte(`{"currency":"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","feed":"0x8fffffd4afb6115b954bd326cbe7b4ba576818f6"}`)

	auth, err := Sign(key, "currency_add", req)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	addr, err := Verify("currency_add", req, auth)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if addr != key.Address() {
		t.Errorf("signer = %s, want %s", addr, key.Address())
	}

	if _, err := Verify("contract_setWebpage", req, auth); !errors.Is(err, ErrBadSignature) {
		t.Error("signature replayed under another method")
	}
	altered := bytes.Replace(req, []byte("0xa0"), []byte("0xb0"), 1)
	if _, err := Verify("currency_add", altered, auth); !errors.Is(err, ErrBadSignature) {
		t.Error("signature accepted for altered params")
	}
	if _, err := Verify("currency_add", req, Auth{PubKey: "zz", Signature: auth.Signature}); !errors.Is(err, ErrBadSignature) {
		t.Error("bad pubkey accepted")
	}
}
