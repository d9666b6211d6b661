package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	if !NativeCurrency.IsZero() {
		t.Error("NativeCurrency should be the zero address")
	}
	if (Address{0x01}).IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String(t *testing.T) {
	a := Address{0xab}
	a[19] = 0xcd
	s := a.String()
	if !strings.HasPrefix(s, "0xab") || !strings.HasSuffix(s, "cd") {
		t.Errorf("String() = %s, want 0xab...cd", s)
	}
	if len(s) != 42 {
		t.Errorf("String() length = %d, want 42", len(s))
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"prefixed", "0xdD2FD4581271e230360230F9337D5c0430Bf44C0", false},
		{"raw hex", "dd2fd4581271e230360230f9337d5c0430bf44c0", false},
		{"upper prefix", "0XDD2FD4581271E230360230F9337D5C0430BF44C0", false},
		{"empty", "", true},
		{"short", "0xdead", true},
		{"not hex", "0xzz2fd4581271e230360230f9337d5c0430bf44c0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAddress(%q) should fail", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.in, err)
			}
			if a.String() != "0xdd2fd4581271e230360230f9337d5c0430bf44c0" {
				t.Errorf("parsed = %s", a)
			}
		})
	}
}

func TestAddress_JSON(t *testing.T) {
	a := MustParseAddress("0xbDA5747bFD65F08deb54cb465eB87D40e51B197E")
	data, err := json.Marshal(map[string]Address{"owner": a})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"0xbda5747bfd65f08deb54cb465eb87d40e51b197e"`) {
		t.Errorf("json = %s", data)
	}

	var back map[string]Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back["owner"] != a {
		t.Errorf("roundtrip = %s, want %s", back["owner"], a)
	}
}

func TestAddress_AsMapKey(t *testing.T) {
	a := Address{0x01}
	data, err := json.Marshal(map[Address]int{a: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[Address]int
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back[a] != 1 {
		t.Errorf("map key roundtrip failed: %s", data)
	}
}

func TestParseFeedID(t *testing.T) {
	f, err := ParseFeedID("0xdD2FD4581271e230360230F9337D5c0430Bf44C0")
	if err != nil {
		t.Fatalf("ParseFeedID: %v", err)
	}
	if f.IsZero() {
		t.Fatal("feed should not be zero")
	}
	if _, err := ParseFeedID("0x1234"); err == nil {
		t.Error("short feed id should fail")
	}
}

func TestHash_UnmarshalJSON(t *testing.T) {
	var h Hash
	if err := json.Unmarshal([]byte(`"`+strings.Repeat("ab", 32)+`"`), &h); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if h[0] != 0xab || h[31] != 0xab {
		t.Errorf("hash = %s", h)
	}
	if err := json.Unmarshal([]byte(`"abcd"`), &h); err == nil {
		t.Error("short hash should fail")
	}
}
