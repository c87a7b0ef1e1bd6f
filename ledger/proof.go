package ledger

import (
	"fmt"

	"github.com/weftlabs/weft/keys"
)

// NodeSig is one node's certification of a transfer.
type NodeSig struct {
	Node string `json:"node"`
	Sig  string `json:"sig"`
}

// DebitProof is a transfer plus the node signatures that settle it.
// Any holder can verify it against the network's node set.
type DebitProof struct {
	Transfer SignedTransfer `json:"transfer"`
	Sigs     []NodeSig      `json:"sigs"`
}

// Verify checks the sender's signature and that at least threshold
// distinct nodes from peers certified the transfer.
func (p DebitProof) Verify(peers []string, threshold int) error {
	if threshold < 1 {
		return fmt.Errorf("%w: threshold must be at least 1", ErrBadProof)
	}
	if err := p.Transfer.Verify(); err != nil {
		return err
	}
	b, err := p.Transfer.Transfer.Canonical()
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(peers))
	for _, id := range peers {
		known[id] = true
	}
	counted := make(map[string]bool, len(p.Sigs))
	for _, ns := range p.Sigs {
		if !known[ns.Node] || counted[ns.Node] {
			continue
		}
		if err := keys.VerifyNodeSig(ns.Node, b, ns.Sig); err != nil {
			continue
		}
		counted[ns.Node] = true
	}
	if len(counted) < threshold {
		return fmt.Errorf("%w: %d of %d required signatures", ErrBadProof, len(counted), threshold)
	}
	return nil
}
