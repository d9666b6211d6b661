package storage

import (
	"bytes"
	"errors"
	"testing"
)

// runDBSuite exercises the behaviour every DB implementation must share.
func runDBSuite(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) {
		if err := db.Put([]byte("item/1"), []byte("ada")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := db.Get([]byte("item/1"))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, []byte("ada")) {
			t.Errorf("Get = %q, want %q", got, "ada")
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := db.Get([]byte("item/404"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
		ok, err := db.Has([]byte("item/404"))
		if err != nil || ok {
			t.Errorf("Has(missing) = %v, %v", ok, err)
		}
	})

	t.Run("OverwriteAndDelete", func(t *testing.T) {
		db.Put([]byte("fee"), []byte("50"))
		db.Put([]byte("fee"), []byte("100"))
		got, _ := db.Get([]byte("fee"))
		if string(got) != "100" {
			t.Errorf("Get after overwrite = %q", got)
		}
		if err := db.Delete([]byte("fee")); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if ok, _ := db.Has([]byte("fee")); ok {
			t.Error("key still present after Delete")
		}
		if err := db.Delete([]byte("never-written")); err != nil {
			t.Errorf("Delete(missing): %v", err)
		}
	})

	t.Run("BinaryValues", func(t *testing.T) {
		key := []byte{0x00, 0x01, 0xFF}
		value := make([]byte, 256)
		for i := range value {
			value[i] = byte(i)
		}
		db.Put(key, value)
		got, err := db.Get(key)
		if err != nil || !bytes.Equal(got, value) {
			t.Errorf("binary value mismatch (err=%v)", err)
		}
		db.Put([]byte("empty"), []byte{})
		got, err = db.Get([]byte("empty"))
		if err != nil || len(got) != 0 {
			t.Errorf("empty value = %v, %v", got, err)
		}
	})

	t.Run("ForEach", func(t *testing.T) {
		db.Put([]byte("cur/a"), []byte("1"))
		db.Put([]byte("cur/b"), []byte("2"))
		db.Put([]byte("cur/c"), []byte("3"))
		db.Put([]byte("curx"), []byte("4"))

		var n int
		err := db.ForEach([]byte("cur/"), func(_, _ []byte) error {
			n++
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach: %v", err)
		}
		if n != 3 {
			t.Errorf("ForEach(cur/) visited %d keys, want 3", n)
		}

		stop := errors.New("stop")
		n = 0
		err = db.ForEach([]byte("cur/"), func(_, _ []byte) error {
			n++
			return stop
		})
		if !errors.Is(err, stop) || n != 1 {
			t.Errorf("early stop: n=%d err=%v", n, err)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		db.Put([]byte("batch/old"), []byte("x"))

		b := NewBatch(db)
		b.Put([]byte("batch/a"), []byte("1"))
		b.Put([]byte("batch/b"), []byte("2"))
		b.Delete([]byte("batch/old"))

		if ok, _ := db.Has([]byte("batch/a")); ok {
			t.Fatal("batch write visible before Commit")
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		for _, k := range []string{"batch/a", "batch/b"} {
			if ok, _ := db.Has([]byte(k)); !ok {
				t.Errorf("%s missing after Commit", k)
			}
		}
		if ok, _ := db.Has([]byte("batch/old")); ok {
			t.Error("batch delete not applied")
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	runDBSuite(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()
	runDBSuite(t, db)
}

func TestBadgerDB_Reopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	b := db1.NewBatch()
	b.Put([]byte("state/counter"), []byte{0x32})
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	db1.Close()

	db2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	got, err := db2.Get([]byte("state/counter"))
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !bytes.Equal(got, []byte{0x32}) {
		t.Errorf("value after reopen = %x", got)
	}
}

func TestBadgerDB_Locked(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	defer db.Close()

	if _, err := NewBadger(dir); err == nil {
		t.Fatal("second open of a locked directory should fail")
	}
}
