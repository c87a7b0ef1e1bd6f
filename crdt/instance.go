package crdt

import (
	"fmt"
	"sync"
)

// Status reports what a replica did with a submitted op.
type Status int

const (
	StatusAccepted Status = iota
	StatusDuplicate
	StatusDeferred
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDuplicate:
		return "duplicate"
	case StatusDeferred:
		return "deferred"
	}
	return "unknown"
}

// ParseStatus is the inverse of Status.String for wire use.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "accepted":
		return StatusAccepted, nil
	case "duplicate":
		return StatusDuplicate, nil
	case "deferred":
		return StatusDeferred, nil
	}
	return 0, fmt.Errorf("crdt: unknown status %q", s)
}

// ApplyResult is the outcome of submitting one op. Missing lists the
// dots the replica still needs when the op was deferred.
type ApplyResult struct {
	Status  Status
	Missing []Dot
}

type dataType int

const (
	typeUnset dataType = iota
	typeSequence
	typeRegister
	typeMap
)

// Instance is the replicated state of one piece of mutable data. The
// first accepted op fixes its data type; every later op must carry a
// matching kind.
type Instance struct {
	mu      sync.Mutex
	typ     dataType
	seen    VClock
	log     []SignedOp
	pending map[Dot]SignedOp
	seq     *sequenceState
	reg     *registerState
	kv      *mapState
}

func newInstance() *Instance {
	return &Instance{
		seen:    VClock{},
		pending: make(map[Dot]SignedOp),
	}
}

// Apply integrates one op whose signature the caller has verified.
//
// Redelivered ops report StatusDuplicate and change nothing. Ops
// whose context is not yet covered are buffered and report
// StatusDeferred with the missing dots; they integrate on their own
// once the gaps fill.
func (in *Instance) Apply(sop SignedOp) (ApplyResult, error) {
	if err := sop.Op.Validate(); err != nil {
		return ApplyResult{}, err
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	op := sop.Op
	if in.seen.Covers(op.ID) {
		return ApplyResult{Status: StatusDuplicate}, nil
	}
	if _, ok := in.pending[op.ID]; ok {
		return ApplyResult{Status: StatusDeferred, Missing: in.seen.Missing(op.Ctx)}, nil
	}
	if !in.seen.CoversAll(op.Ctx) {
		in.pending[op.ID] = sop
		return ApplyResult{Status: StatusDeferred, Missing: in.seen.Missing(op.Ctx)}, nil
	}
	if err := in.integrateLocked(sop); err != nil {
		return ApplyResult{}, err
	}
	in.drainLocked()
	return ApplyResult{Status: StatusAccepted}, nil
}

func (in *Instance) integrateLocked(sop SignedOp) error {
	op := sop.Op
	want := op.typeFor()
	if in.typ == typeUnset {
		in.typ = want
		switch want {
		case typeSequence:
			in.seq = newSequenceState()
		case typeRegister:
			in.reg = newRegisterState()
		case typeMap:
			in.kv = newMapState()
		}
	} else if in.typ != want {
		return fmt.Errorf("%w: %s op on %s data", ErrKindMismatch, op.Kind, in.typeName())
	}

	switch op.Kind {
	case KindSequenceInsert:
		if err := in.seq.insert(op.ID, op.Anchor, op.Value, op.lamport()); err != nil {
			return err
		}
	case KindSequenceRemove:
		if err := in.seq.remove(*op.Entry); err != nil {
			return err
		}
	case KindRegisterWrite:
		in.reg.write(op.ID, op.Ctx, op.Value)
	case KindMapPut:
		in.kv.put(op.Key, op.ID, op.Ctx, op.Value)
	case KindMapRemove:
		in.kv.remove(op.Key, op.Ctx)
	}

	in.seen.Witness(op.ID)
	in.log = append(in.log, sop)
	return nil
}

// drainLocked integrates buffered ops whose contexts became covered.
// Buffered ops passed shape validation already; ones that still fail
// to integrate (bad anchor, kind mismatch) are dropped, which every
// replica does identically.
func (in *Instance) drainLocked() {
	for {
		progressed := false
		for id, sop := range in.pending {
			if in.seen.Covers(id) {
				delete(in.pending, id)
				progressed = true
				continue
			}
			if in.seen.CoversAll(sop.Op.Ctx) {
				delete(in.pending, id)
				_ = in.integrateLocked(sop)
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

func (in *Instance) typeName() string {
	switch in.typ {
	case typeSequence:
		return "sequence"
	case typeRegister:
		return "register"
	case typeMap:
		return "map"
	}
	return "unset"
}

// Sequence returns the visible elements in document order.
func (in *Instance) Sequence() ([]Elem, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.typ == typeUnset {
		return nil, nil
	}
	if in.typ != typeSequence {
		return nil, fmt.Errorf("%w: read sequence on %s data", ErrKindMismatch, in.typeName())
	}
	return in.seq.read(), nil
}

// Register returns the causally maximal values, greatest dot first.
// One element means the register is resolved.
func (in *Instance) Register() ([]Version, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.typ == typeUnset {
		return nil, nil
	}
	if in.typ != typeRegister {
		return nil, fmt.Errorf("%w: read register on %s data", ErrKindMismatch, in.typeName())
	}
	return in.reg.read(), nil
}

// MapGet returns the live versions under key, empty when the key is
// absent or fully removed.
func (in *Instance) MapGet(key string) ([]Version, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.typ == typeUnset {
		return nil, nil
	}
	if in.typ != typeMap {
		return nil, fmt.Errorf("%w: read map on %s data", ErrKindMismatch, in.typeName())
	}
	return in.kv.get(key), nil
}

// MapKeys returns the keys with at least one live version, sorted.
func (in *Instance) MapKeys() ([]string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.typ == typeUnset {
		return nil, nil
	}
	if in.typ != typeMap {
		return nil, fmt.Errorf("%w: read map on %s data", ErrKindMismatch, in.typeName())
	}
	return in.kv.sortedKeys(), nil
}

// Clock returns a copy of the applied-op clock.
func (in *Instance) Clock() VClock {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.seen.Clone()
}

// OpsSince returns accepted ops not covered by since, in an order
// safe to replay: every op's dependencies precede it.
func (in *Instance) OpsSince(since VClock) []SignedOp {
	in.mu.Lock()
	defer in.mu.Unlock()
	var out []SignedOp
	for _, sop := range in.log {
		if !since.Covers(sop.Op.ID) {
			out = append(out, sop)
		}
	}
	return out
}

// PendingCount reports how many ops sit buffered on causal gaps.
func (in *Instance) PendingCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}
