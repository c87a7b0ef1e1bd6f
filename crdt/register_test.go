package crdt

import "testing"

func TestRegisterCausalOverwrite(t *testing.T) {
	a := newSite(t, 1, "reg-causal")
	b := newSite(t, 2, "reg-causal")

	v1 := a.write("v1")
	b.recv(v1)
	v2 := b.write("v2")
	a.recv(v2)

	for name, in := range map[string]*Instance{"a": a.inst, "b": b.inst} {
		got := regValues(t, in)
		if !equalStrings(got, []string{"v2"}) {
			t.Fatalf("%s: register = %v, want [v2]", name, got)
		}
	}
}

func TestRegisterConcurrentWritesKeepBoth(t *testing.T) {
	a := newSite(t, 1, "reg-concurrent")
	b := newSite(t, 2, "reg-concurrent")

	va := a.write("from-a")
	vb := b.write("from-b")
	a.recv(vb)
	b.recv(va)

	gotA := regValues(t, a.inst)
	gotB := regValues(t, b.inst)
	if !equalStrings(gotA, gotB) {
		t.Fatalf("sites diverged: %v vs %v", gotA, gotB)
	}
	if len(gotA) != 2 {
		t.Fatalf("concurrent writes = %v, want both values", gotA)
	}

	// Deterministic order: greater dot first.
	first := "from-a"
	if b.actor() > a.actor() {
		first = "from-b"
	}
	if gotA[0] != first {
		t.Fatalf("version order = %v, want %q first", gotA, first)
	}
}

func TestRegisterResolvesAfterMergedWrite(t *testing.T) {
	a := newSite(t, 1, "reg-resolve")
	b := newSite(t, 2, "reg-resolve")

	va := a.write("from-a")
	vb := b.write("from-b")
	a.recv(vb)
	b.recv(va)

	// A has seen both branches; its next write supersedes them.
	v3 := a.write("merged")
	b.recv(v3)

	for name, in := range map[string]*Instance{"a": a.inst, "b": b.inst} {
		got := regValues(t, in)
		if !equalStrings(got, []string{"merged"}) {
			t.Fatalf("%s: register = %v, want [merged]", name, got)
		}
	}
}

func TestRegisterStaleWriteDoesNotResurrect(t *testing.T) {
	a := newSite(t, 1, "reg-stale")
	b := newSite(t, 2, "reg-stale")

	v1 := a.write("v1")
	b.recv(v1)
	v2 := b.write("v2")

	// A third replica receives the newer write first, then the stale
	// one. The stale write must not surface.
	fresh := newInstance()
	if _, err := fresh.Apply(v2); err != nil {
		t.Fatalf("Apply v2: %v", err)
	}
	if _, err := fresh.Apply(v1); err != nil {
		t.Fatalf("Apply v1: %v", err)
	}
	got := regValues(t, fresh)
	if !equalStrings(got, []string{"v2"}) {
		t.Fatalf("register = %v, want [v2]", got)
	}
}
