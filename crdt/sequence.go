package crdt

import (
	"fmt"
	"sort"
)

// Elem is one visible sequence element. The ID anchors later inserts
// and names the element for removal.
type Elem struct {
	ID    Dot    `json:"id"`
	Value []byte `json:"value"`
}

// sequenceState is an insert-after tree. Each element hangs off the
// element it was inserted after (or the head), siblings ordered by
// descending (logical timestamp, actor) so concurrent inserts at one
// anchor land in the same order on every replica, and an insert that
// causally follows its siblings lands closest to the anchor. Removal
// tombstones the element but keeps its position as an anchor.
type sequenceState struct {
	nodes map[Dot]*seqNode
	roots []Dot
}

type seqNode struct {
	value    []byte
	ts       uint64
	removed  bool
	children []Dot
}

func newSequenceState() *sequenceState {
	return &sequenceState{nodes: make(map[Dot]*seqNode)}
}

func (s *sequenceState) insert(id Dot, anchor *Dot, value []byte, ts uint64) error {
	if _, ok := s.nodes[id]; ok {
		return fmt.Errorf("%w: duplicate element %s", ErrBadOp, id)
	}
	siblings := &s.roots
	if anchor != nil && !anchor.Zero() {
		parent, ok := s.nodes[*anchor]
		if !ok {
			return fmt.Errorf("%w: anchor %s is not a sequence element", ErrBadOp, anchor)
		}
		siblings = &parent.children
	}
	s.nodes[id] = &seqNode{value: value, ts: ts}
	*siblings = s.insertSibling(*siblings, id)
	return nil
}

func (s *sequenceState) remove(entry Dot) error {
	node, ok := s.nodes[entry]
	if !ok {
		return fmt.Errorf("%w: entry %s is not a sequence element", ErrBadOp, entry)
	}
	node.removed = true
	return nil
}

// insertSibling keeps siblings sorted with the greatest timestamp
// first, ties broken by the greater actor. Equal timestamps mean the
// ops were concurrent, so their actors always differ.
func (s *sequenceState) insertSibling(siblings []Dot, id Dot) []Dot {
	ts := s.nodes[id].ts
	at := sort.Search(len(siblings), func(i int) bool {
		sib := s.nodes[siblings[i]]
		if sib.ts != ts {
			return sib.ts < ts
		}
		return siblings[i].Actor < id.Actor
	})
	siblings = append(siblings, Dot{})
	copy(siblings[at+1:], siblings[at:])
	siblings[at] = id
	return siblings
}

/// read walks the tree depth first: an element comes right before the
// subtrees of everything inserted after it.
func (s *sequenceState) read() []Elem {
	var out []Elem
	var walk func(ids []Dot)
	walk = func(ids []Dot) {
		for _, id := range ids {
			node := s.nodes[id]
			if !node.removed {
				out = append(out, Elem{ID: id, Value: node.value})
			}
			walk(node.children)
		}
	}
	walk(s.roots)
	return out
}
