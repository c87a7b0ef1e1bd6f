package ledger

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/weftlabs/weft/keys"
)

func testAccount(t *testing.T, fill byte) *keys.Account {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = fill + byte(i)
	}
	acct, err := keys.AccountFromSeed(seed)
	if err != nil {
		t.Fatalf("AccountFromSeed: %v", err)
	}
	return acct
}

func TestTransferCanonicalStable(t *testing.T) {
	tr := Transfer{From: "ed25519:AAA", To: "ed25519:BBB", Amount: 5, Seq: 2, Prev: "bafyprev"}

	b1, err := tr.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b2, err := tr.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatal("canonical bytes not stable")
	}

	id1, err := tr.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	tr.Amount = 6
	id2, err := tr.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id1 == id2 {
		t.Fatal("different transfers produced the same CID")
	}
}

func TestTransferValidateShape(t *testing.T) {
	good := Transfer{From: "a", To: "b", Amount: 1, Seq: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid transfer rejected: %v", err)
	}

	cases := map[string]Transfer{
		"missing from":  {To: "b", Amount: 1, Seq: 1},
		"self transfer": {From: "a", To: "a", Amount: 1, Seq: 1},
		"zero amount":   {From: "a", To: "b", Seq: 1},
		"zero seq":      {From: "a", To: "b", Amount: 1},
		"prev on first": {From: "a", To: "b", Amount: 1, Seq: 1, Prev: "bafyx"},
		"missing prev":  {From: "a", To: "b", Amount: 1, Seq: 2},
	}
	for name, tr := range cases {
		if err := tr.Validate(); !errors.Is(err, ErrBadTransfer) {
			t.Fatalf("%s: got %v, want ErrBadTransfer", name, err)
		}
	}
}

func TestSignTransferVerify(t *testing.T) {
	alice := testAccount(t, 1)
	bob := testAccount(t, 2)

	st, err := SignTransfer(Transfer{From: alice.ID(), To: bob.ID(), Amount: 3, Seq: 1}, alice)
	if err != nil {
		t.Fatalf("SignTransfer: %v", err)
	}
	if err := st.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	tampered := st
	tampered.Transfer.Amount = 300
	if err := tampered.Verify(); !errors.Is(err, keys.ErrBadSignature) {
		t.Fatalf("tampered transfer: got %v, want ErrBadSignature", err)
	}

	_, err = SignTransfer(Transfer{From: alice.ID(), To: bob.ID(), Amount: 3, Seq: 1}, bob)
	if !errors.Is(err, ErrBadTransfer) {
		t.Fatalf("foreign signer: got %v, want ErrBadTransfer", err)
	}
}

func TestHistoryBalanceAndChain(t *testing.T) {
	alice := testAccount(t, 1)
	h := History{Owner: alice.ID()}
	h.addCredit(genesisCredit(alice.ID(), 10))

	if got := h.Balance(); got != 10 {
		t.Fatalf("Balance = %d, want 10", got)
	}
	if got := h.NextSeq(); got != 1 {
		t.Fatalf("NextSeq = %d, want 1", got)
	}
	prev, err := h.LastDebitID()
	if err != nil || prev != "" {
		t.Fatalf("LastDebitID = %q, %v; want empty", prev, err)
	}

	// Redelivered credits must not double count.
	h.addCredit(genesisCredit(alice.ID(), 10))
	if got := h.Balance(); got != 10 {
		t.Fatalf("Balance after duplicate credit = %d, want 10", got)
	}
}
