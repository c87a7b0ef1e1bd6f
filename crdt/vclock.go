package crdt

import "sort"

// VClock counts the ops a replica has applied per actor. Ops from one
// actor apply in their issue order, so a single counter per actor
// fully describes what has been seen.
type VClock map[Actor]uint64

// Get returns the highest applied seq for actor, 0 when none.
func (v VClock) Get(a Actor) uint64 { return v[a] }

// Witness records d as applied.
func (v VClock) Witness(d Dot) {
	if d.Seq > v[d.Actor] {
		v[d.Actor] = d.Seq
	}
}

// Covers reports whether d has been applied.
func (v VClock) Covers(d Dot) bool {
	return !d.Zero() && v[d.Actor] >= d.Seq
}

// CoversAll reports whether every op counted in o has been applied.
func (v VClock) CoversAll(o VClock) bool {
	for a, n := range o {
		if v[a] < n {
			return false
		}
	}
	return true
}

// Merge folds o into v, keeping per-actor maximums.
func (v VClock) Merge(o VClock) {
	for a, n := range o {
		if n > v[a] {
			v[a] = n
		}
	}
}

// Clone returns an independent copy. Clone of nil returns an empty,
// usable clock.
func (v VClock) Clone() VClock {
	out := make(VClock, len(v))
	for a, n := range v {
		out[a] = n
	}
	return out
}

// Equal reports whether v and o count the same history.
func (v VClock) Equal(o VClock) bool {
	return v.CoversAll(o) && o.CoversAll(v)
}

// Concurrent reports whether neither clock covers the other.
func (v VClock) Concurrent(o VClock) bool {
	return !v.CoversAll(o) && !o.CoversAll(v)
}

// Missing lists the dots counted in o but not applied here, in
// per-actor seq order. It is the "what do I still need" answer a
// replica gives when an op arrives ahead of its context.
func (v VClock) Missing(o VClock) []Dot {
	var out []Dot
	for _, a := range sortedActors(o) {
		for s := v[a] + 1; s <= o[a]; s++ {
			out = append(out, Dot{Actor: a, Seq: s})
		}
	}
	return out
}

func sortedActors(v VClock) []Actor {
	actors := make([]Actor, 0, len(v))
	for a := range v {
		actors = append(actors, a)
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i] < actors[j] })
	return actors
}
