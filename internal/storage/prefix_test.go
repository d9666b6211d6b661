package storage

import (
	"errors"
	"sort"
	"testing"
)

func TestPrefixDB_Suite(t *testing.T) {
	runDBSuite(t, NewPrefixDB(NewMemory(), []byte("ANME/")))
}

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	a := NewPrefixDB(inner, []byte("a/"))
	b := NewPrefixDB(inner, []byte("b/"))

	a.Put([]byte("key"), []byte("fromA"))
	b.Put([]byte("key"), []byte("fromB"))

	got, err := a.Get([]byte("key"))
	if err != nil || string(got) != "fromA" {
		t.Fatalf("a.Get = %q, %v", got, err)
	}
	got, err = b.Get([]byte("key"))
	if err != nil || string(got) != "fromB" {
		t.Fatalf("b.Get = %q, %v", got, err)
	}
	if _, err := a.Get([]byte("b/key")); !errors.Is(err, ErrNotFound) {
		t.Errorf("a sees b's key: %v", err)
	}

	raw, err := inner.Get([]byte("a/key"))
	if err != nil || string(raw) != "fromA" {
		t.Errorf("inner a/key = %q, %v", raw, err)
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("ns/"))
	db.Put([]byte("item/1"), []byte("x"))
	db.Put([]byte("item/2"), []byte("y"))
	inner.Put([]byte("item/3"), []byte("outside"))

	var keys []string
	err := db.ForEach([]byte("item/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "item/1" || keys[1] != "item/2" {
		t.Errorf("keys = %v", keys)
	}
}

func TestPrefixDB_BatchPrefixesKeys(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("ns/"))

	b := db.NewBatch()
	b.Put([]byte("k"), []byte("v"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ok, _ := inner.Has([]byte("ns/k")); !ok {
		t.Error("batch write not prefixed in inner DB")
	}
	if ok, _ := inner.Has([]byte("k")); ok {
		t.Error("batch wrote unprefixed key")
	}
}
