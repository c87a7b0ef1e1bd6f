package crdt

import "sort"

// Version is one causally maximal value of a register or map key,
// named by the dot of the write that produced it.
type Version struct {
	ID    Dot    `json:"id"`
	Value []byte `json:"value"`
}

// versionEntry pairs a written value with the full clock of its
// write (the author's context plus the write's own dot). A later
// write whose clock covers an entry's clock supersedes it.
type versionEntry struct {
	id    Dot
	clock VClock
	value []byte
}

// registerState keeps the causally maximal writes. Concurrent writes
// coexist until a write that has seen them all lands.
type registerState struct {
	versions []versionEntry
}

func newRegisterState() *registerState { return &registerState{} }

func (r *registerState) write(id Dot, ctx VClock, value []byte) {
	r.versions = mergeVersion(r.versions, id, ctx, value)
}

func (r *registerState) read() []Version {
	return readVersions(r.versions)
}

// mergeVersion folds a new write into a maximal-version set: drop
// entries the write has seen, keep it only if nothing present has
// seen it, and keep the set sorted by descending dot for
// deterministic reads.
func mergeVersion(versions []versionEntry, id Dot, ctx VClock, value []byte) []versionEntry {
	clock := ctx.Clone()
	clock.Witness(id)

	kept := versions[:0]
	dominated := false
	for _, e := range versions {
		if clock.CoversAll(e.clock) {
			continue
		}
		if e.clock.CoversAll(clock) {
			dominated = true
		}
		kept = append(kept, e)
	}
	if !dominated {
		kept = append(kept, versionEntry{id: id, clock: clock, value: value})
		sort.Slice(kept, func(i, j int) bool {
			return kept[j].id.Before(kept[i].id)
		})
	}
	return kept
}

func readVersions(versions []versionEntry) []Version {
	out := make([]Version, 0, len(versions))
	for _, e := range versions {
		out = append(out, Version{ID: e.id, Value: e.value})
	}
	return out
}
