// Package node assembles one storage-fleet member: a chunk store, a
// CRDT replica and a ledger replica behind a single validated surface.
// With a data directory configured, accepted mutations are journaled
// and replayed on start, so a restarted node keeps its state.
package node

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/storage"
	"github.com/weftlabs/weft/storage/localfs"
)

// Config describes one node.
type Config struct {
	Name string
	Key  *keys.NodeKey

	// Peers is the fleet's full node-id set and Quorum the number of
	// certifications a transfer needs. An empty set disables proof
	// checking (single-node development).
	Peers  []string
	Quorum int

	// Chunks overrides the chunk store. When nil, chunks live under
	// DataDir, or in memory if there is no DataDir either.
	Chunks storage.CAS

	// DataDir enables journaling and on-disk chunks.
	DataDir string

	Logger *slog.Logger
}

// ledgerRecord is one row of the ledger journal.
type ledgerRecord struct {
	Genesis *genesisRecord     `json:"genesis,omitempty"`
	Commit  *ledger.DebitProof `json:"commit,omitempty"`
}

type genesisRecord struct {
	Owner  string        `json:"owner"`
	Amount ledger.Amount `json:"amount"`
}

// Node is one fleet member.
type Node struct {
	name   string
	key    *keys.NodeKey
	chunks storage.CAS
	data   *crdt.Replica
	bank   *ledger.Replica
	log    *slog.Logger

	ops   *journal[crdt.SignedOp]
	bankJ *journal[ledgerRecord]
}

// New builds a node from cfg, replaying any journals under DataDir.
func New(cfg Config) (*Node, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("node: config needs a name")
	}
	if cfg.Key == nil {
		return nil, fmt.Errorf("node: config needs a key")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("node", cfg.Name)

	chunks := cfg.Chunks
	if chunks == nil {
		if cfg.DataDir != "" {
			cas, err := localfs.New(filepath.Join(cfg.DataDir, "chunks"))
			if err != nil {
				return nil, err
			}
			chunks = cas
		} else {
			chunks = storage.NewMemory()
		}
	}

	n := &Node{
		name:   cfg.Name,
		key:    cfg.Key,
		chunks: chunks,
		data:   crdt.NewReplica(),
		bank:   ledger.NewReplica(cfg.Key, cfg.Peers, cfg.Quorum),
		log:    logger,
	}
	if cfg.DataDir != "" {
		if err := n.openJournals(cfg.DataDir); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Node) openJournals(dir string) error {
	rows, opsJ, err := openJournal[crdt.SignedOp](filepath.Join(dir, "ops.jsonl"))
	if err != nil {
		return err
	}
	replayed := 0
	for _, sop := range rows {
		if _, err := n.data.Apply(sop); err != nil {
			n.log.Warn("journaled op no longer applies", "op", sop.Op.ID, "err", err)
			continue
		}
		replayed++
	}
	n.ops = opsJ

	records, bankJ, err := openJournal[ledgerRecord](filepath.Join(dir, "ledger.jsonl"))
	if err != nil {
		return err
	}
	committed := 0
	for _, rec := range records {
		switch {
		case rec.Genesis != nil:
			if err := n.bank.Genesis(rec.Genesis.Owner, rec.Genesis.Amount); err != nil {
				n.log.Warn("journaled genesis no longer applies", "owner", rec.Genesis.Owner, "err", err)
			}
		case rec.Commit != nil:
			if err := n.bank.Commit(*rec.Commit); err != nil {
				n.log.Warn("journaled transfer no longer applies", "err", err)
				continue
			}
			committed++
		}
	}
	n.bankJ = bankJ

	if replayed > 0 || committed > 0 {
		n.log.Info("journal replayed", "ops", replayed, "transfers", committed)
	}
	return nil
}

// Name returns the node's configured name.
func (n *Node) Name() string { return n.name }

// Chunks exposes the node's chunk store. A fleet composes the stores
// of its members into replicating and fallback views.
func (n *Node) Chunks() storage.CAS { return n.chunks }

// ID returns the node's signing identity.
func (n *Node) ID() string { return n.key.ID() }

// PutChunk stores one chunk.
func (n *Node) PutChunk(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	return n.chunks.Put(data)
}

// GetChunk fetches one chunk.
func (n *Node) GetChunk(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return n.chunks.Get(id)
}

// HasChunk reports whether the node holds id.
func (n *Node) HasChunk(ctx context.Context, id cid.Cid) bool {
	if ctx.Err() != nil {
		return false
	}
	return n.chunks.Has(id)
}

// SubmitOp validates and merges one signed mutation. Deferred ops are
// journaled too: they are valid, only early, and replay re-buffers
// them.
func (n *Node) SubmitOp(ctx context.Context, sop crdt.SignedOp) (crdt.ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return crdt.ApplyResult{}, err
	}
	res, err := n.data.Apply(sop)
	if err != nil {
		return res, err
	}
	if res.Status != crdt.StatusDuplicate && n.ops != nil {
		if err := n.ops.Append(sop); err != nil {
			return res, err
		}
	}
	n.log.Debug("op merged", "target", sop.Op.Target, "op", sop.Op.ID, "status", res.Status)
	return res, nil
}

// Ops returns the ops for target not covered by since, plus the
// node's current clock for the target.
func (n *Node) Ops(ctx context.Context, target string, since crdt.VClock) ([]crdt.SignedOp, crdt.VClock, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return n.data.Ops(target, since), n.data.Clock(target), nil
}

// Genesis mints a starting balance. Bootstrap only.
func (n *Node) Genesis(owner string, amount ledger.Amount) error {
	if err := n.bank.Genesis(owner, amount); err != nil {
		return err
	}
	if n.bankJ != nil {
		return n.bankJ.Append(ledgerRecord{Genesis: &genesisRecord{Owner: owner, Amount: amount}})
	}
	return nil
}

// ValidateTransfer checks st against the node's ledger state.
func (n *Node) ValidateTransfer(ctx context.Context, st ledger.SignedTransfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.bank.Validate(st)
}

// CertifyTransfer validates st and counter-signs it.
func (n *Node) CertifyTransfer(ctx context.Context, st ledger.SignedTransfer) (ledger.NodeSig, error) {
	if err := ctx.Err(); err != nil {
		return ledger.NodeSig{}, err
	}
	return n.bank.Certify(st)
}

// SubmitTransfer runs single-node agreement: validate, self-certify,
// commit. Fleet deployments coordinate across nodes instead.
func (n *Node) SubmitTransfer(ctx context.Context, st ledger.SignedTransfer) (ledger.DebitProof, error) {
	if err := ctx.Err(); err != nil {
		return ledger.DebitProof{}, err
	}
	sig, err := n.bank.Certify(st)
	if err != nil {
		return ledger.DebitProof{}, err
	}
	p := ledger.DebitProof{Transfer: st, Sigs: []ledger.NodeSig{sig}}
	if err := n.CommitTransfer(ctx, p); err != nil {
		return ledger.DebitProof{}, err
	}
	return p, nil
}

// CommitTransfer settles a proven transfer.
func (n *Node) CommitTransfer(ctx context.Context, p ledger.DebitProof) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.bank.Commit(p); err != nil {
		return err
	}
	if n.bankJ != nil {
		if err := n.bankJ.Append(ledgerRecord{Commit: &p}); err != nil {
			return err
		}
	}
	t := p.Transfer.Transfer
	n.log.Info("transfer committed", "from", t.From, "to", t.To, "amount", t.Amount, "seq", t.Seq)
	return nil
}

// History returns owner's ledger view.
func (n *Node) History(ctx context.Context, owner string) (ledger.History, error) {
	if err := ctx.Err(); err != nil {
		return ledger.History{}, err
	}
	return n.bank.History(owner), nil
}
