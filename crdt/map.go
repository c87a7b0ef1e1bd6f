package crdt

import "sort"

// mapState keeps per-key maximal-version sets, reusing the register
// merge. A remove only covers the writes its author had observed;
// a concurrent put to the same key survives it.
type mapState struct {
	keys map[string][]versionEntry
}

func newMapState() *mapState {
	return &mapState{keys: make(map[string][]versionEntry)}
}

func (m *mapState) put(key string, id Dot, ctx VClock, value []byte) {
	m.keys[key] = mergeVersion(m.keys[key], id, ctx, value)
}

func (m *mapState) remove(key string, ctx VClock) {
	kept := m.keys[key][:0]
	for _, e := range m.keys[key] {
		if ctx.Covers(e.id) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		delete(m.keys, key)
		return
	}
	m.keys[key] = kept
}

func (m *mapState) get(key string) []Version {
	return readVersions(m.keys[key])
}

func (m *mapState) sortedKeys() []string {
	out := make([]string, 0, len(m.keys))
	for k := range m.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
