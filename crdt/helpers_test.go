package crdt

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/weftlabs/weft/keys"
)

// site simulates one writer with its own local instance: ops are
// built against the site's current clock, applied locally, and handed
// to the test to deliver elsewhere in whatever order it wants.
type site struct {
	t      *testing.T
	acct   *keys.Account
	target string
	inst   *Instance
	next   uint64
}

func newSite(t *testing.T, fill byte, target string) *site {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = fill + byte(i)
	}
	acct, err := keys.AccountFromSeed(seed)
	if err != nil {
		t.Fatalf("AccountFromSeed: %v", err)
	}
	return &site{t: t, acct: acct, target: target, inst: newInstance()}
}

func (s *site) actor() Actor { return Actor(s.acct.ID()) }

// op builds, signs and locally applies one op. The mutate callback
// fills the kind-specific fields.
func (s *site) op(kind Kind, mutate func(op *Op)) SignedOp {
	s.t.Helper()
	op := Op{
		ID:     Dot{Actor: s.actor(), Seq: s.next + 1},
		Kind:   kind,
		Target: s.target,
		Ctx:    s.inst.Clock(),
	}
	mutate(&op)
	sop, err := Sign(op, s.acct)
	if err != nil {
		s.t.Fatalf("Sign: %v", err)
	}
	res, err := s.inst.Apply(sop)
	if err != nil {
		s.t.Fatalf("local Apply: %v", err)
	}
	if res.Status != StatusAccepted {
		s.t.Fatalf("local Apply status = %v, want accepted", res.Status)
	}
	s.next++
	return sop
}

func (s *site) append(value string) SignedOp {
	s.t.Helper()
	elems, err := s.inst.Sequence()
	if err != nil {
		s.t.Fatalf("Sequence: %v", err)
	}
	var anchor *Dot
	if len(elems) > 0 {
		last := elems[len(elems)-1].ID
		anchor = &last
	}
	return s.op(KindSequenceInsert, func(op *Op) {
		op.Anchor = anchor
		op.Value = []byte(value)
	})
}

func (s *site) insertAfter(anchor *Dot, value string) SignedOp {
	s.t.Helper()
	return s.op(KindSequenceInsert, func(op *Op) {
		op.Anchor = anchor
		op.Value = []byte(value)
	})
}

func (s *site) removeElem(entry Dot) SignedOp {
	s.t.Helper()
	return s.op(KindSequenceRemove, func(op *Op) {
		op.Entry = &entry
	})
}

func (s *site) write(value string) SignedOp {
	s.t.Helper()
	return s.op(KindRegisterWrite, func(op *Op) {
		op.Value = []byte(value)
	})
}

func (s *site) mapPut(key, value string) SignedOp {
	s.t.Helper()
	return s.op(KindMapPut, func(op *Op) {
		op.Key = key
		op.Value = []byte(value)
	})
}

func (s *site) mapRemove(key string) SignedOp {
	s.t.Helper()
	return s.op(KindMapRemove, func(op *Op) {
		op.Key = key
	})
}

// recv delivers remote ops to the site's instance.
func (s *site) recv(sops ...SignedOp) {
	s.t.Helper()
	for _, sop := range sops {
		if _, err := s.inst.Apply(sop); err != nil {
			s.t.Fatalf("recv Apply: %v", err)
		}
	}
}

func seqValues(t *testing.T, in *Instance) []string {
	t.Helper()
	elems, err := in.Sequence()
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		out = append(out, string(e.Value))
	}
	return out
}

func regValues(t *testing.T, in *Instance) []string {
	t.Helper()
	versions, err := in.Register()
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, string(v.Value))
	}
	return out
}

func mapValues(t *testing.T, in *Instance, key string) []string {
	t.Helper()
	versions, err := in.MapGet(key)
	if err != nil {
		t.Fatalf("MapGet: %v", err)
	}
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, string(v.Value))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// deliverShuffled applies the op set to a fresh instance in a seeded
// random order and returns the instance once everything drained.
func deliverShuffled(t *testing.T, sops []SignedOp, seed int64) *Instance {
	t.Helper()
	order := make([]SignedOp, len(sops))
	copy(order, sops)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	in := newInstance()
	for _, sop := range order {
		if _, err := in.Apply(sop); err != nil {
			t.Fatalf("Apply in shuffled order: %v", err)
		}
	}
	if n := in.PendingCount(); n != 0 {
		t.Fatalf("%d ops still buffered after full delivery", n)
	}
	return in
}
