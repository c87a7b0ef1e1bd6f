package crdt

import "errors"

var (
	// ErrCausalGap means an op names causal dependencies the replica
	// has not applied. The op is buffered; the submitter should send
	// the missing ops.
	ErrCausalGap = errors.New("crdt: causal gap, missing dependencies")

	// ErrBadOp means an op is structurally invalid for its kind.
	ErrBadOp = errors.New("crdt: malformed op")

	// ErrKindMismatch means an op's kind does not fit the data type
	// already living at its target.
	ErrKindMismatch = errors.New("crdt: op kind does not match data type")

	// ErrUnknownTarget means a read named data no op has reached yet.
	ErrUnknownTarget = errors.New("crdt: unknown target")
)
