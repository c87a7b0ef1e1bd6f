package crdt

import (
	"errors"
	"testing"

	"github.com/weftlabs/weft/keys"
)

func TestApplyIdempotent(t *testing.T) {
	a := newSite(t, 1, "engine-dup")
	sop := a.write("v1")

	fresh := newInstance()
	res, err := fresh.Apply(sop)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Status != StatusAccepted {
		t.Fatalf("first Apply = %v, want accepted", res.Status)
	}

	res, err = fresh.Apply(sop)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if res.Status != StatusDuplicate {
		t.Fatalf("redelivery = %v, want duplicate", res.Status)
	}
	if got := regValues(t, fresh); !equalStrings(got, []string{"v1"}) {
		t.Fatalf("state changed on redelivery: %v", got)
	}
}

func TestApplyBuffersOnCausalGap(t *testing.T) {
	a := newSite(t, 1, "engine-gap")
	op1 := a.write("v1")
	op2 := a.write("v2")
	op3 := a.write("v3")

	fresh := newInstance()

	// Deliver the last op first: it must wait for both predecessors.
	res, err := fresh.Apply(op3)
	if err != nil {
		t.Fatalf("Apply op3: %v", err)
	}
	if res.Status != StatusDeferred {
		t.Fatalf("op3 = %v, want deferred", res.Status)
	}
	if len(res.Missing) != 2 {
		t.Fatalf("missing = %v, want the two predecessor dots", res.Missing)
	}
	if res.Missing[0] != op1.Op.ID || res.Missing[1] != op2.Op.ID {
		t.Fatalf("missing = %v, want [%v %v]", res.Missing, op1.Op.ID, op2.Op.ID)
	}
	if fresh.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", fresh.PendingCount())
	}

	// Filling the first gap is not enough.
	if res, err = fresh.Apply(op1); err != nil || res.Status != StatusAccepted {
		t.Fatalf("Apply op1 = %v, %v", res.Status, err)
	}
	if got := regValues(t, fresh); !equalStrings(got, []string{"v1"}) {
		t.Fatalf("register = %v, want [v1] while op3 waits", got)
	}

	// Filling the second gap drains the buffer.
	if res, err = fresh.Apply(op2); err != nil || res.Status != StatusAccepted {
		t.Fatalf("Apply op2 = %v, %v", res.Status, err)
	}
	if fresh.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d after drain, want 0", fresh.PendingCount())
	}
	if got := regValues(t, fresh); !equalStrings(got, []string{"v3"}) {
		t.Fatalf("register = %v, want [v3]", got)
	}

	// The drained op now counts as applied.
	res, err = fresh.Apply(op3)
	if err != nil {
		t.Fatalf("redeliver op3: %v", err)
	}
	if res.Status != StatusDuplicate {
		t.Fatalf("redeliver op3 = %v, want duplicate", res.Status)
	}
}

func TestApplyRejectsMalformedOps(t *testing.T) {
	a := newSite(t, 1, "engine-shape")
	good := a.write("v1")

	cases := map[string]Op{
		"missing value": {
			ID: Dot{Actor: a.actor(), Seq: 2}, Kind: KindRegisterWrite,
			Target: "engine-shape", Ctx: VClock{a.actor(): 1},
		},
		"ctx behind own seq": {
			ID: Dot{Actor: a.actor(), Seq: 3}, Kind: KindRegisterWrite,
			Target: "engine-shape", Value: []byte("x"), Ctx: VClock{a.actor(): 1},
		},
		"unknown kind": {
			ID: Dot{Actor: a.actor(), Seq: 2}, Kind: "register/unknown",
			Target: "engine-shape", Value: []byte("x"), Ctx: VClock{a.actor(): 1},
		},
		"missing target": {
			ID: Dot{Actor: a.actor(), Seq: 2}, Kind: KindRegisterWrite,
			Value: []byte("x"), Ctx: VClock{a.actor(): 1},
		},
	}
	fresh := newInstance()
	if _, err := fresh.Apply(good); err != nil {
		t.Fatalf("Apply good: %v", err)
	}
	for name, op := range cases {
		if _, err := fresh.Apply(SignedOp{Op: op}); !errors.Is(err, ErrBadOp) {
			t.Fatalf("%s: got %v, want ErrBadOp", name, err)
		}
	}
}

func TestApplyRejectsKindMismatch(t *testing.T) {
	a := newSite(t, 1, "engine-kind")
	regWrite := a.write("v1")

	fresh := newInstance()
	if _, err := fresh.Apply(regWrite); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Build a map put against the same target by hand; the site
	// helper would have refused to apply it locally.
	b := newSite(t, 2, "engine-kind")
	mapPut := b.mapPut("k", "v")
	if _, err := fresh.Apply(mapPut); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("mixed kinds: got %v, want ErrKindMismatch", err)
	}
}

func TestReplicaVerifiesSignatures(t *testing.T) {
	a := newSite(t, 1, "replica-sig")
	sop := a.write("v1")

	r := NewReplica()
	if _, err := r.Apply(sop); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	forged := sop
	forged.Op.Value = []byte("evil")
	forged.Op.ID.Seq = 2
	forged.Op.Ctx = VClock{a.actor(): 1}
	if _, err := r.Apply(forged); !errors.Is(err, keys.ErrBadSignature) {
		t.Fatalf("forged op: got %v, want ErrBadSignature", err)
	}

	if got := regValues(t, r.Instance("replica-sig")); !equalStrings(got, []string{"v1"}) {
		t.Fatalf("state after forgery attempt: %v", got)
	}
}

func TestOpsSinceReplays(t *testing.T) {
	a := newSite(t, 1, "replica-sync")
	b := newSite(t, 2, "replica-sync")
	op1 := a.append("one")
	b.recv(op1)
	op2 := b.append("two")
	a.recv(op2)
	a.append("three")

	// Full replay into an empty instance.
	all := a.inst.OpsSince(VClock{})
	if len(all) != 3 {
		t.Fatalf("OpsSince(empty) = %d ops, want 3", len(all))
	}
	fresh := newInstance()
	for _, sop := range all {
		res, err := fresh.Apply(sop)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if res.Status != StatusAccepted {
			t.Fatalf("replay status = %v, want accepted (log order is causal)", res.Status)
		}
	}
	if got, want := seqValues(t, fresh), seqValues(t, a.inst); !equalStrings(got, want) {
		t.Fatalf("replayed state = %v, want %v", got, want)
	}

	// Incremental sync: a client that has op1 only needs the tail.
	tail := a.inst.OpsSince(VClock{a.actor(): 1})
	if len(tail) != 2 {
		t.Fatalf("OpsSince(partial) = %d ops, want 2", len(tail))
	}
}

func TestReplicaRoutesByTarget(t *testing.T) {
	a := newSite(t, 1, "target-1")
	b := newSite(t, 1, "target-2")
	op1 := a.write("one")
	op2 := b.mapPut("k", "two")

	r := NewReplica()
	for _, sop := range []SignedOp{op1, op2} {
		if _, err := r.Apply(sop); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	if got := regValues(t, r.Instance("target-1")); !equalStrings(got, []string{"one"}) {
		t.Fatalf("target-1 = %v", got)
	}
	if got := mapValues(t, r.Instance("target-2"), "k"); !equalStrings(got, []string{"two"}) {
		t.Fatalf("target-2 = %v", got)
	}
	targets := r.Targets()
	if !equalStrings(targets, []string{"target-1", "target-2"}) {
		t.Fatalf("Targets = %v", targets)
	}
	if _, ok := r.Lookup("target-3"); ok {
		t.Fatal("Lookup invented a target")
	}
}
