package localfs

import (
	"errors"
	"os"
	"testing"

	"github.com/weftlabs/weft/cidutil"
	"github.com/weftlabs/weft/storage"
	"github.com/weftlabs/weft/storage/testkit"
)

func TestLocalFSConformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		cas, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return cas
	})
}

func TestLocalFSRejectMutationByOverwrite(t *testing.T) {
	cas, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte("original chunk")
	id, err := cas.Put(orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path := cas.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Get must detect the hash mismatch.
	if _, err := cas.Get(id); !errors.Is(err, storage.ErrMismatch) {
		t.Fatalf("Get after corruption: got %v want %v", err, storage.ErrMismatch)
	}

	// Put must not silently repair the corrupted object.
	if _, err := cas.Put(orig); !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}

	wantID, err := cidutil.CIDv1RawSHA256CID(orig)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID failed: %v", err)
	}
	if id != wantID {
		t.Fatalf("unexpected CID: got %s want %s", id, wantID)
	}
}

func TestLocalFSSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	first, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	id, err := first.Put([]byte("durable chunk"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	second, err := New(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := second.Get(id)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "durable chunk" {
		t.Fatalf("Get after reopen returned %q", got)
	}
}
