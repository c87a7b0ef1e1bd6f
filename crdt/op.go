package crdt

import (
	"encoding/json"
	"fmt"

	"github.com/weftlabs/weft/keys"
)

// Kind names the mutation an op carries.
type Kind string

const (
	KindSequenceInsert Kind = "sequence/insert"
	KindSequenceRemove Kind = "sequence/remove"
	KindRegisterWrite  Kind = "register/write"
	KindMapPut         Kind = "map/put"
	KindMapRemove      Kind = "map/remove"
)

// Op is one mutation of one piece of mutable data.
//
// ID is the op's dot; Ctx is the author's clock for the target at
// issue time, excluding the op itself. An op with Ctx[a]=n can only
// apply after a's first n ops, which keeps each actor's stream in
// order and gives removes their observed set.
type Op struct {
	ID     Dot    `json:"id"`
	Kind   Kind   `json:"kind"`
	Target string `json:"target"`
	Key    string `json:"key,omitempty"`
	Anchor *Dot   `json:"anchor,omitempty"`
	Entry  *Dot   `json:"entry,omitempty"`
	Value  []byte `json:"value,omitempty"`
	Ctx    VClock `json:"ctx,omitempty"`
}

// Canonical returns the bytes signatures cover. Struct fields marshal
// in declaration order and clock keys sort, so the encoding is stable
// across replicas.
func (o Op) Canonical() ([]byte, error) {
	return json.Marshal(o)
}

// Validate checks the op's shape for its kind.
func (o Op) Validate() error {
	if o.ID.Actor == "" || o.ID.Seq == 0 {
		return fmt.Errorf("%w: missing id", ErrBadOp)
	}
	if o.Target == "" {
		return fmt.Errorf("%w: missing target", ErrBadOp)
	}
	if got, want := o.Ctx.Get(o.ID.Actor), o.ID.Seq-1; got != want {
		return fmt.Errorf("%w: ctx counts %d own ops, id %s requires %d", ErrBadOp, got, o.ID, want)
	}
	switch o.Kind {
	case KindSequenceInsert:
		if o.Value == nil {
			return fmt.Errorf("%w: insert needs a value", ErrBadOp)
		}
		if o.Anchor != nil && !o.Ctx.Covers(*o.Anchor) {
			return fmt.Errorf("%w: anchor %s not in ctx", ErrBadOp, o.Anchor)
		}
	case KindSequenceRemove:
		if o.Entry == nil || o.Entry.Zero() {
			return fmt.Errorf("%w: remove needs an entry", ErrBadOp)
		}
		if !o.Ctx.Covers(*o.Entry) {
			return fmt.Errorf("%w: entry %s not in ctx", ErrBadOp, o.Entry)
		}
	case KindRegisterWrite:
		if o.Value == nil {
			return fmt.Errorf("%w: write needs a value", ErrBadOp)
		}
	case KindMapPut:
		if o.Key == "" || o.Value == nil {
			return fmt.Errorf("%w: map put needs a key and a value", ErrBadOp)
		}
	case KindMapRemove:
		if o.Key == "" {
			return fmt.Errorf("%w: map remove needs a key", ErrBadOp)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrBadOp, o.Kind)
	}
	return nil
}

// lamport is the op's logical timestamp: the number of ops in its
// causal past, itself included. An op that causally follows another
// always carries the greater timestamp; only concurrent ops can tie.
func (o Op) lamport() uint64 {
	n := uint64(1)
	for _, s := range o.Ctx {
		n += s
	}
	return n
}

// typeFor maps an op kind to the data type it mutates.
func (o Op) typeFor() dataType {
	switch o.Kind {
	case KindSequenceInsert, KindSequenceRemove:
		return typeSequence
	case KindRegisterWrite:
		return typeRegister
	case KindMapPut, KindMapRemove:
		return typeMap
	}
	return typeUnset
}

// SignedOp binds an op to its author's signature. The author is the
// op's actor; there is no separate author field to keep consistent.
type SignedOp struct {
	Op  Op     `json:"op"`
	Sig string `json:"sig"`
}

// Sign signs op with the account that owns its actor.
func Sign(op Op, acct *keys.Account) (SignedOp, error) {
	if err := op.Validate(); err != nil {
		return SignedOp{}, err
	}
	if acct.ID() != string(op.ID.Actor) {
		return SignedOp{}, fmt.Errorf("%w: actor %s is not the signing account", ErrBadOp, op.ID.Actor)
	}
	b, err := op.Canonical()
	if err != nil {
		return SignedOp{}, err
	}
	return SignedOp{Op: op, Sig: acct.Sign(b)}, nil
}

// Verify checks the signature against the op's actor.
func (s SignedOp) Verify() error {
	b, err := s.Op.Canonical()
	if err != nil {
		return err
	}
	return keys.VerifyAccountSig(string(s.Op.ID.Actor), b, s.Sig)
}
