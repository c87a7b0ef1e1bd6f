// Package crdt implements the replicated data types the network
// serves: an insert-after sequence, a multi-value register and an
// observed-remove map.
//
// Every mutation is an Op tagged with a Dot (author actor plus a
// per-actor counter) and the causal context the author had seen when
// issuing it. Replicas apply an op only once its context is covered,
// buffer it otherwise, and ignore redeliveries, so any delivery order
// of the same op set converges to the same state.
package crdt

import "strconv"

// Actor identifies an op author. It is the author's account address
// string, so a signed op's actor doubles as its verification key.
type Actor string

// Dot is the unique id of one op: the actor plus that actor's
// position in its own op stream, counted from 1.
type Dot struct {
	Actor Actor  `json:"actor"`
	Seq   uint64 `json:"seq"`
}

// Zero reports whether d is the zero Dot. A zero anchor means the
// head of a sequence.
func (d Dot) Zero() bool { return d.Actor == "" && d.Seq == 0 }

// Before is the total order used to break ties between concurrent
// ops. Higher (Seq, Actor) sorts first among register versions.
func (d Dot) Before(o Dot) bool {
	if d.Seq != o.Seq {
		return d.Seq < o.Seq
	}
	return d.Actor < o.Actor
}

func (d Dot) String() string {
	return string(d.Actor) + "#" + strconv.FormatUint(d.Seq, 10)
}
