package rpc

import (
	"github.com/weftlabs/weft/crdt"
)

// Wire shapes for the BytesValue payloads. Ops, transfers, proofs and
// histories cross as their canonical JSON encodings so the bytes a
// client signs are the bytes a node verifies.

type opsRequest struct {
	Target string      `json:"target"`
	Since  crdt.VClock `json:"since,omitempty"`
}

type opsResponse struct {
	Ops   []crdt.SignedOp `json:"ops,omitempty"`
	Clock crdt.VClock     `json:"clock,omitempty"`
}

type applyResponse struct {
	Status  string     `json:"status"`
	Missing []crdt.Dot `json:"missing,omitempty"`
}
