// Package fleet runs an in-process network of storage nodes, the
// local stand-in for a deployed fleet. Chunk writes replicate to
// every node, reads fall back across them, ops broadcast to all, and
// transfer agreement is serialized so exactly one of two conflicting
// debits settles.
package fleet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/node"
	"github.com/weftlabs/weft/storage"
)

// Config describes a local fleet.
type Config struct {
	// Nodes is the fleet size. Defaults to 3.
	Nodes int

	// Seed roots the deterministic node keys. Required.
	Seed []byte

	// DataDir, when set, gives every node a journal and on-disk
	// chunks under DataDir/<node name>.
	DataDir string

	// ShuffleSeed randomizes the node visit order per op broadcast.
	// Zero keeps the configured order.
	ShuffleSeed int64

	Logger *slog.Logger

	// NodeLogger, when set, supplies each node's logger by name.
	// Local networks use it to give every node its own log file.
	NodeLogger func(name string) *slog.Logger
}

// Fleet is a set of in-process nodes behind one client surface.
type Fleet struct {
	nodes  []*node.Node
	quorum int
	log    *slog.Logger

	// writes fans a chunk out to every node; reads falls back across
	// them in node order.
	writes storage.ReplicatingCAS
	reads  storage.MultiCAS

	// agree serializes transfer agreement across the fleet.
	agree sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Quorum returns the certification count transfers need in a fleet
// of n nodes: a two-thirds supermajority, rounded up.
func Quorum(n int) int {
	return (2*n + 2) / 3
}

// New starts a fleet from cfg.
func New(cfg Config) (*Fleet, error) {
	count := cfg.Nodes
	if count == 0 {
		count = 3
	}
	if count < 1 {
		return nil, fmt.Errorf("fleet: node count %d", count)
	}
	if len(cfg.Seed) == 0 {
		return nil, fmt.Errorf("fleet: config needs a seed")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	nodeKeys := make([]*keys.NodeKey, count)
	peers := make([]string, count)
	for i := range nodeKeys {
		key, err := keys.DeriveNodeKey(cfg.Seed, nodeName(i))
		if err != nil {
			return nil, err
		}
		nodeKeys[i] = key
		peers[i] = key.ID()
	}

	f := &Fleet{quorum: Quorum(count), log: logger}
	if cfg.ShuffleSeed != 0 {
		f.rng = rand.New(rand.NewSource(cfg.ShuffleSeed))
	}
	for i, key := range nodeKeys {
		nc := node.Config{
			Name:   nodeName(i),
			Key:    key,
			Peers:  peers,
			Quorum: f.quorum,
			Logger: logger,
		}
		if cfg.NodeLogger != nil {
			if l := cfg.NodeLogger(nc.Name); l != nil {
				nc.Logger = l
			}
		}
		if cfg.DataDir != "" {
			nc.DataDir = filepath.Join(cfg.DataDir, nc.Name)
		}
		n, err := node.New(nc)
		if err != nil {
			return nil, err
		}
		f.nodes = append(f.nodes, n)
		f.writes.Members = append(f.writes.Members, storage.NamedCAS{Name: n.Name(), CAS: n.Chunks()})
		f.reads.Stores = append(f.reads.Stores, n.Chunks())
	}
	logger.Info("fleet up", "nodes", count, "quorum", f.quorum)
	return f, nil
}

func nodeName(i int) string {
	return fmt.Sprintf("node-%d", i+1)
}

// Size returns the node count.
func (f *Fleet) Size() int { return len(f.nodes) }

// NodeIDs returns every node's signing identity.
func (f *Fleet) NodeIDs() []string {
	ids := make([]string, len(f.nodes))
	for i, n := range f.nodes {
		ids[i] = n.ID()
	}
	return ids
}

// Node returns the i'th node.
func (f *Fleet) Node(i int) *node.Node { return f.nodes[i] }

// Genesis mints a starting balance on every node.
func (f *Fleet) Genesis(owner string, amount ledger.Amount) error {
	for _, n := range f.nodes {
		if err := n.Genesis(owner, amount); err != nil {
			return err
		}
	}
	return nil
}

// order returns the node visit order for one broadcast.
func (f *Fleet) order() []*node.Node {
	out := make([]*node.Node, len(f.nodes))
	copy(out, f.nodes)
	if f.rng != nil {
		f.rngMu.Lock()
		f.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		f.rngMu.Unlock()
	}
	return out
}

// PutChunk stores data on every node and returns the agreed address.
// The put succeeds only once all members hold the chunk under the
// same CID.
func (f *Fleet) PutChunk(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	return f.writes.Put(data)
}

// GetChunk fetches id from the first node holding it.
func (f *Fleet) GetChunk(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.reads.Get(id)
}

// HasChunk reports whether any node holds id.
func (f *Fleet) HasChunk(ctx context.Context, id cid.Cid) bool {
	if ctx.Err() != nil {
		return false
	}
	return f.reads.Has(id)
}

// SubmitOp broadcasts one signed mutation to every node.
func (f *Fleet) SubmitOp(ctx context.Context, sop crdt.SignedOp) (crdt.ApplyResult, error) {
	var agg crdt.ApplyResult
	first := true
	for _, n := range f.order() {
		res, err := n.SubmitOp(ctx, sop)
		if err != nil {
			return crdt.ApplyResult{}, err
		}
		if first || better(res.Status, agg.Status) {
			agg = res
			first = false
		}
	}
	return agg, nil
}

// better orders apply outcomes for aggregation: an accept anywhere
// outranks a defer, which outranks a duplicate.
func better(a, b crdt.Status) bool {
	rank := func(s crdt.Status) int {
		switch s {
		case crdt.StatusAccepted:
			return 2
		case crdt.StatusDeferred:
			return 1
		default:
			return 0
		}
	}
	return rank(a) > rank(b)
}

// Ops pulls the op log for target. The fleet broadcasts every op to
// every node, so any one node's view serves.
func (f *Fleet) Ops(ctx context.Context, target string, since crdt.VClock) ([]crdt.SignedOp, crdt.VClock, error) {
	return f.nodes[0].Ops(ctx, target, since)
}

// SubmitTransfer runs one round of transfer agreement: every node
// validates and certifies, the certifications form a debit proof, and
// the proof commits on every node. Agreement is serialized, so of two
// conflicting transfers the second always observes the first.
func (f *Fleet) SubmitTransfer(ctx context.Context, st ledger.SignedTransfer) (ledger.DebitProof, error) {
	f.agree.Lock()
	defer f.agree.Unlock()

	var sigs []ledger.NodeSig
	for _, n := range f.nodes {
		sig, err := n.CertifyTransfer(ctx, st)
		if err != nil {
			return ledger.DebitProof{}, err
		}
		sigs = append(sigs, sig)
	}
	if len(sigs) < f.quorum {
		return ledger.DebitProof{}, fmt.Errorf("%w: %d of %d certifications",
			ledger.ErrBadProof, len(sigs), f.quorum)
	}
	proof := ledger.DebitProof{Transfer: st, Sigs: sigs}
	for _, n := range f.nodes {
		if err := n.CommitTransfer(ctx, proof); err != nil {
			return ledger.DebitProof{}, err
		}
	}
	return proof, nil
}

// History returns owner's ledger view.
func (f *Fleet) History(ctx context.Context, owner string) (ledger.History, error) {
	return f.nodes[0].History(ctx, owner)
}
