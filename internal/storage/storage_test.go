package storage

import (
	"bytes"
	"path/filepath"
	"testing"
)

// newTestStorage opens a store in a temporary directory.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStorage(t)

	key := []byte("a:key")
	value := []byte("value")

	if err := s.Set(key, value); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.Get([]byte("missing"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != nil {
		t.Errorf("Get returned %q, want nil", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStorage(t)

	key := []byte("b:key")

	if err := s.Set(key, []byte("value")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != nil {
		t.Errorf("key still present after delete: %q", got)
	}
}

func TestSetBatch(t *testing.T) {
	s := newTestStorage(t)

	pairs := []KeyValue{
		{Key: []byte("b:1"), Value: []byte("one")},
		{Key: []byte("b:2"), Value: []byte("two")},
		{Key: []byte("b:3"), Value: []byte("three")},
	}

	if err := s.SetBatch(pairs); err != nil {
		t.Fatalf("SetBatch: %v", err)
	}

	for _, kv := range pairs {
		got, err := s.Get(kv.Key)
		if err != nil {
			t.Fatalf("Get %q: %v", kv.Key, err)
		}

		if !bytes.Equal(got, kv.Value) {
			t.Errorf("Get %q = %q, want %q", kv.Key, got, kv.Value)
		}
	}
}

func TestIteratePrefix(t *testing.T) {
	s := newTestStorage(t)

	_ = s.Set([]byte("a:1"), []byte("x"))
	_ = s.Set([]byte("b:1"), []byte("y"))
	_ = s.Set([]byte("b:2"), []byte("z"))
	_ = s.Set([]byte("c:1"), []byte("w"))

	var keys []string

	err := s.IteratePrefix([]byte("b:"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("IteratePrefix: %v", err)
	}

	if len(keys) != 2 || keys[0] != "b:1" || keys[1] != "b:2" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestIteratePrefixOrder(t *testing.T) {
	s := newTestStorage(t)

	// Insert out of order; iteration must be lexicographic.
	_ = s.Set([]byte("b:3"), []byte("3"))
	_ = s.Set([]byte("b:1"), []byte("1"))
	_ = s.Set([]byte("b:2"), []byte("2"))

	var values []string

	_ = s.IteratePrefix([]byte("b:"), func(key, value []byte) error {
		values = append(values, string(value))
		return nil
	})

	want := []string{"1", "2", "3"}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("values = %v, want %v", values, want)
		}
	}
}

func TestPrefixUpperBound(t *testing.T) {
	if got := prefixUpperBound([]byte("b:")); !bytes.Equal(got, []byte("b;")) {
		t.Errorf("upper bound of b: = %q", got)
	}

	if got := prefixUpperBound([]byte{0xFF, 0xFF}); got != nil {
		t.Errorf("upper bound of all-0xFF = %v, want nil", got)
	}
}
