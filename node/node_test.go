package node

import (
	"context"
	"errors"
	"testing"

	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
)

func testSeed(fill byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = fill
	}
	return seed
}

func testAccount(t *testing.T, fill byte) *keys.Account {
	t.Helper()
	acct, err := keys.AccountFromSeed(testSeed(fill))
	if err != nil {
		t.Fatalf("AccountFromSeed: %v", err)
	}
	return acct
}

func newTestNode(t *testing.T, dir string) *Node {
	t.Helper()
	key, err := keys.DeriveNodeKey(testSeed(200), "n1")
	if err != nil {
		t.Fatalf("DeriveNodeKey: %v", err)
	}
	n, err := New(Config{Name: "n1", Key: key, DataDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

// chainOp builds the seq'th op of a single-author sequence, each
// element anchored on the previous one.
func chainOp(t *testing.T, acct *keys.Account, target string, seq uint64, value string) crdt.SignedOp {
	t.Helper()
	actor := crdt.Actor(acct.ID())
	op := crdt.Op{
		ID:     crdt.Dot{Actor: actor, Seq: seq},
		Kind:   crdt.KindSequenceInsert,
		Target: target,
		Value:  []byte(value),
	}
	if seq > 1 {
		op.Anchor = &crdt.Dot{Actor: actor, Seq: seq - 1}
		op.Ctx = crdt.VClock{actor: seq - 1}
	}
	sop, err := crdt.Sign(op, acct)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return sop
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(Config{Name: "x"}); err == nil {
		t.Fatal("New without key accepted")
	}
	key, err := keys.DeriveNodeKey(testSeed(1), "x")
	if err != nil {
		t.Fatalf("DeriveNodeKey: %v", err)
	}
	if _, err := New(Config{Key: key}); err == nil {
		t.Fatal("New without name accepted")
	}
}

func TestChunkSurface(t *testing.T) {
	n := newTestNode(t, "")
	ctx := context.Background()

	id, err := n.PutChunk(ctx, []byte("weft chunk"))
	if err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	got, err := n.GetChunk(ctx, id)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if string(got) != "weft chunk" {
		t.Fatalf("round trip: %q", got)
	}
	if !n.HasChunk(ctx, id) {
		t.Fatal("HasChunk says no")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := n.PutChunk(cancelled, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled put: got %v", err)
	}
	if n.HasChunk(cancelled, id) {
		t.Fatal("cancelled has: got true")
	}
}

func TestSubmitOpAndOps(t *testing.T) {
	n := newTestNode(t, "")
	ctx := context.Background()
	alice := testAccount(t, 1)
	const target = "seq/notes"

	for seq := uint64(1); seq <= 3; seq++ {
		res, err := n.SubmitOp(ctx, chainOp(t, alice, target, seq, "v"))
		if err != nil {
			t.Fatalf("SubmitOp %d: %v", seq, err)
		}
		if res.Status != crdt.StatusAccepted {
			t.Fatalf("op %d: status %v", seq, res.Status)
		}
	}

	ops, clock, err := n.Ops(ctx, target, nil)
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("got %d ops, want 3", len(ops))
	}
	if clock.Get(crdt.Actor(alice.ID())) != 3 {
		t.Fatalf("clock = %v", clock)
	}

	caughtUp, _, err := n.Ops(ctx, target, clock)
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(caughtUp) != 0 {
		t.Fatalf("caught-up pull returned %d ops", len(caughtUp))
	}

	res, err := n.SubmitOp(ctx, chainOp(t, alice, target, 2, "v"))
	if err != nil {
		t.Fatalf("duplicate SubmitOp: %v", err)
	}
	if res.Status != crdt.StatusDuplicate {
		t.Fatalf("duplicate status %v", res.Status)
	}
}

func TestJournalReplay(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	alice := testAccount(t, 1)
	bob := testAccount(t, 2)
	const target = "seq/notes"

	n := newTestNode(t, dir)
	if err := n.Genesis(alice.ID(), 10); err != nil {
		t.Fatalf("Genesis: %v", err)
	}
	for seq := uint64(1); seq <= 2; seq++ {
		if _, err := n.SubmitOp(ctx, chainOp(t, alice, target, seq, "v")); err != nil {
			t.Fatalf("SubmitOp: %v", err)
		}
	}

	hist, err := n.History(ctx, alice.ID())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	actor, err := ledger.NewActor(alice, hist)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	st, err := actor.Build(bob.ID(), 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Single node, no quorum configured: a bare proof commits.
	if err := n.CommitTransfer(ctx, ledger.DebitProof{Transfer: st}); err != nil {
		t.Fatalf("CommitTransfer: %v", err)
	}

	reopened := newTestNode(t, dir)
	ops, clock, err := reopened.Ops(ctx, target, nil)
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(ops) != 2 || clock.Get(crdt.Actor(alice.ID())) != 2 {
		t.Fatalf("replayed %d ops, clock %v", len(ops), clock)
	}
	hist, err = reopened.History(ctx, alice.ID())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if hist.Balance() != 7 {
		t.Fatalf("alice after replay = %d, want 7", hist.Balance())
	}
	bobHist, err := reopened.History(ctx, bob.ID())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if bobHist.Balance() != 3 {
		t.Fatalf("bob after replay = %d, want 3", bobHist.Balance())
	}
}

func TestSubmitTransferSingleNode(t *testing.T) {
	ctx := context.Background()
	alice := testAccount(t, 1)
	bob := testAccount(t, 2)

	key, err := keys.DeriveNodeKey(testSeed(200), "solo")
	if err != nil {
		t.Fatalf("DeriveNodeKey: %v", err)
	}
	n, err := New(Config{Name: "solo", Key: key, Peers: []string{key.ID()}, Quorum: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Genesis(alice.ID(), 10); err != nil {
		t.Fatalf("Genesis: %v", err)
	}

	hist, err := n.History(ctx, alice.ID())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	actor, err := ledger.NewActor(alice, hist)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	st, err := actor.Build(bob.ID(), 6)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p, err := n.SubmitTransfer(ctx, st)
	if err != nil {
		t.Fatalf("SubmitTransfer: %v", err)
	}
	if len(p.Sigs) != 1 || p.Sigs[0].Node != key.ID() {
		t.Fatalf("proof sigs: %+v", p.Sigs)
	}

	// A second transfer built from the same snapshot loses its slot.
	stale, err := ledger.NewActor(alice, hist)
	if err != nil {
		t.Fatalf("NewActor: %v", err)
	}
	competing, err := stale.Build(bob.ID(), 7)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := n.SubmitTransfer(ctx, competing); !errors.Is(err, ledger.ErrTransferSuperseded) {
		t.Fatalf("competing: got %v, want ErrTransferSuperseded", err)
	}

	bobHist, err := n.History(ctx, bob.ID())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if bobHist.Balance() != 6 {
		t.Fatalf("bob = %d, want 6", bobHist.Balance())
	}
}

func TestDeferredOpSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	alice := testAccount(t, 1)
	const target = "seq/notes"

	n := newTestNode(t, dir)
	res, err := n.SubmitOp(ctx, chainOp(t, alice, target, 2, "second"))
	if err != nil {
		t.Fatalf("SubmitOp: %v", err)
	}
	if res.Status != crdt.StatusDeferred {
		t.Fatalf("early op status %v, want Deferred", res.Status)
	}

	// The gap is still open after a restart.
	n = newTestNode(t, dir)
	ops, _, err := n.Ops(ctx, target, nil)
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(ops) != 0 {
		t.Fatalf("deferred op visible: %d ops", len(ops))
	}

	// Filling the gap drains the buffered op.
	if _, err := n.SubmitOp(ctx, chainOp(t, alice, target, 1, "first")); err != nil {
		t.Fatalf("SubmitOp: %v", err)
	}
	ops, _, err = n.Ops(ctx, target, nil)
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("after fill: %d ops, want 2", len(ops))
	}

	// And the drained pair survives another restart.
	n = newTestNode(t, dir)
	ops, _, err = n.Ops(ctx, target, nil)
	if err != nil {
		t.Fatalf("Ops: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("after second replay: %d ops, want 2", len(ops))
	}
}
