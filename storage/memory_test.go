package storage_test

import (
	"bytes"
	"testing"

	"github.com/weftlabs/weft/storage"
	"github.com/weftlabs/weft/storage/testkit"
)

func TestMemoryConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		return storage.NewMemory()
	})
}

func TestMemoryCopiesBytes(t *testing.T) {
	m := storage.NewMemory()

	buf := []byte("caller-owned buffer")
	want := append([]byte(nil), buf...)
	id, err := m.Put(buf)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the caller's buffer must not reach the store.
	buf[0] = 'X'
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("store aliased the caller's buffer: got %q", got)
	}

	// Mutating a returned copy must not reach the store either.
	got[0] = 'Y'
	again, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(again, want) {
		t.Fatalf("store aliased a returned buffer: got %q", again)
	}

	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}
