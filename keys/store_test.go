package keys

import (
	"os"
	"testing"
)

func TestStoreSaveLoadList(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	seed := testSeed(3)
	id, err := store.Save("alice", seed, false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	acct, err := store.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if acct.ID() != id {
		t.Fatalf("Load returned %q, Save reported %q", acct.ID(), id)
	}

	// A second save without overwrite must not clobber the seed.
	if _, err := store.Save("alice", testSeed(4), false); !os.IsExist(err) {
		t.Fatalf("duplicate Save: got %v want file-exists", err)
	}
	if _, err := store.Save("alice", testSeed(4), true); err != nil {
		t.Fatalf("overwrite Save: %v", err)
	}

	if _, err := store.Save("bob", testSeed(5), false); err != nil {
		t.Fatalf("Save bob: %v", err)
	}
	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("List = %v, want [alice bob]", names)
	}
}

func TestParseSeedHex(t *testing.T) {
	seed := testSeed(6)
	acct, err := AccountFromSeed(seed)
	if err != nil {
		t.Fatalf("AccountFromSeed: %v", err)
	}

	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, err := store.Save("carol", seed, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load("carol")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID() != acct.ID() {
		t.Fatalf("seed round trip changed identity")
	}

	if _, err := ParseSeedHex("0xzz"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
	if _, err := ParseSeedHex("abcd"); err == nil {
		t.Fatal("expected error for short seed")
	}
}
