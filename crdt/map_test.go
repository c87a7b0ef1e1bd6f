package crdt

import "testing"

func TestMapPutGetKeys(t *testing.T) {
	a := newSite(t, 1, "map-basic")
	a.mapPut("color", "red")
	a.mapPut("shape", "circle")
	a.mapPut("color", "blue")

	if got := mapValues(t, a.inst, "color"); !equalStrings(got, []string{"blue"}) {
		t.Fatalf("color = %v, want [blue]", got)
	}
	if got := mapValues(t, a.inst, "shape"); !equalStrings(got, []string{"circle"}) {
		t.Fatalf("shape = %v, want [circle]", got)
	}
	keys, err := a.inst.MapKeys()
	if err != nil {
		t.Fatalf("MapKeys: %v", err)
	}
	if !equalStrings(keys, []string{"color", "shape"}) {
		t.Fatalf("keys = %v, want [color shape]", keys)
	}
}

func TestMapRemoveCoversObserved(t *testing.T) {
	a := newSite(t, 1, "map-remove")
	a.mapPut("color", "red")
	a.mapRemove("color")

	if got := mapValues(t, a.inst, "color"); len(got) != 0 {
		t.Fatalf("color = %v, want empty", got)
	}
	keys, err := a.inst.MapKeys()
	if err != nil {
		t.Fatalf("MapKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want empty", keys)
	}
}

func TestMapConcurrentUpdateSurvivesRemove(t *testing.T) {
	a := newSite(t, 1, "map-or")
	b := newSite(t, 2, "map-or")

	put1 := a.mapPut("color", "red")
	b.recv(put1)

	// B removes the key having seen only "red"; A concurrently
	// writes "green".
	rm := b.mapRemove("color")
	put2 := a.mapPut("color", "green")

	a.recv(rm)
	b.recv(put2)

	gotA := mapValues(t, a.inst, "color")
	gotB := mapValues(t, b.inst, "color")
	if !equalStrings(gotA, gotB) {
		t.Fatalf("sites diverged: %v vs %v", gotA, gotB)
	}
	if !equalStrings(gotA, []string{"green"}) {
		t.Fatalf("color = %v, want the unobserved update to survive", gotA)
	}
}

func TestMapConcurrentPutsKeepBoth(t *testing.T) {
	a := newSite(t, 1, "map-multi")
	b := newSite(t, 2, "map-multi")

	pa := a.mapPut("owner", "alice")
	pb := b.mapPut("owner", "bob")
	a.recv(pb)
	b.recv(pa)

	gotA := mapValues(t, a.inst, "owner")
	gotB := mapValues(t, b.inst, "owner")
	if !equalStrings(gotA, gotB) {
		t.Fatalf("sites diverged: %v vs %v", gotA, gotB)
	}
	if len(gotA) != 2 {
		t.Fatalf("owner = %v, want both concurrent values", gotA)
	}
}

func TestMapPermutationConvergence(t *testing.T) {
	a := newSite(t, 1, "map-perm")
	b := newSite(t, 2, "map-perm")

	var all []SignedOp
	all = append(all, a.mapPut("k1", "a1"))
	b.recv(all[0])
	all = append(all, b.mapPut("k2", "b1"))
	a.recv(all[1])
	all = append(all, a.mapRemove("k2"))
	all = append(all, b.mapPut("k2", "b2"))
	a.recv(all[3])
	b.recv(all[2])

	want := mapValues(t, a.inst, "k2")
	for _, seed := range []int64{3, 11, 99} {
		fresh := deliverShuffled(t, all, seed)
		if got := mapValues(t, fresh, "k2"); !equalStrings(got, want) {
			t.Fatalf("seed %d: k2 = %v, want %v", seed, got, want)
		}
		if got := mapValues(t, fresh, "k1"); !equalStrings(got, []string{"a1"}) {
			t.Fatalf("seed %d: k1 = %v, want [a1]", seed, got)
		}
	}
}
