package storage

import (
	"bytes"
	"math/big"
	"testing"
)

type sampleRecord struct {
	ID    uint64
	Owner [20]byte
	Fee   *big.Int
	Name  string
}

func TestCodec_RoundTrip(t *testing.T) {
	fee, _ := new(big.Int).SetString("50000000000000000000", 10)
	in := sampleRecord{ID: 3, Owner: [20]byte{1, 2, 3}, Fee: fee, Name: "Ada"}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out sampleRecord
	if err := Decode(data, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.ID != in.ID || out.Owner != in.Owner || out.Name != in.Name {
		t.Errorf("decoded = %+v", out)
	}
	if out.Fee == nil || out.Fee.Cmp(fee) != 0 {
		t.Errorf("fee = %v, want %v", out.Fee, fee)
	}
}

func TestCodec_Deterministic(t *testing.T) {
	a, _ := Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	b, _ := Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	if !bytes.Equal(a, b) {
		t.Error("map encoding depends on insertion order")
	}
}

func TestCodec_DecodeGarbage(t *testing.T) {
	var out sampleRecord
	if err := Decode([]byte{0xff, 0x00}, &out); err == nil {
		t.Error("expected error decoding garbage")
	}
}
