package ledger

import (
	"fmt"
	"sync"

	"github.com/weftlabs/weft/keys"
)

// Replica is one node's copy of the ledger. Validation is read-only;
// state changes only through Genesis and Commit, and Commit applies
// debit and credit under one lock so no reader sees half a transfer.
type Replica struct {
	mu        sync.Mutex
	key       *keys.NodeKey
	peers     []string
	threshold int
	accounts  map[string]*History
}

// NewReplica builds a ledger replica signing with key. peers and
// threshold describe the quorum Commit demands of incoming proofs;
// an empty peer set disables proof checking (single-node setups).
func NewReplica(key *keys.NodeKey, peers []string, threshold int) *Replica {
	return &Replica{
		key:       key,
		peers:     peers,
		threshold: threshold,
		accounts:  make(map[string]*History),
	}
}

func (r *Replica) account(owner string) *History {
	h, ok := r.accounts[owner]
	if !ok {
		h = &History{Owner: owner}
		r.accounts[owner] = h
	}
	return h
}

// Genesis mints a starting balance for owner. It is a bootstrap-only
// operation: the minting credit never travels over the wire.
func (r *Replica) Genesis(owner string, amount Amount) error {
	if owner == "" || amount == 0 {
		return fmt.Errorf("%w: genesis needs an owner and a positive amount", ErrBadTransfer)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.account(owner)
	for _, c := range h.Credits {
		if c.Transfer.From == GenesisFrom {
			return fmt.Errorf("%w: %s already has a genesis credit", ErrBadTransfer, owner)
		}
	}
	h.addCredit(genesisCredit(owner, amount))
	return nil
}

// History returns a copy of owner's ledger view. Unknown accounts
// read as empty histories.
func (r *Replica) History(owner string) History {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.accounts[owner]; ok {
		return h.clone()
	}
	return History{Owner: owner}
}

// Balance is a convenience over History.
func (r *Replica) Balance(owner string) Amount {
	return r.History(owner).Balance()
}

// Validate checks whether st could commit against current state.
//
// Outcomes follow the sender's debit chain: a transfer naming a slot
// already taken by a different transfer is superseded forever; one
// naming a slot past the chain's head needs history the replica does
// not have yet; one naming the next slot must leave the balance
// non-negative.
func (r *Replica) Validate(st SignedTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validateLocked(st)
}

func (r *Replica) validateLocked(st SignedTransfer) error {
	t := st.Transfer
	if err := t.Validate(); err != nil {
		return err
	}
	if t.From == GenesisFrom {
		return fmt.Errorf("%w: genesis cannot be sent", ErrBadTransfer)
	}
	if err := st.Verify(); err != nil {
		return err
	}

	h, ok := r.accounts[t.From]
	if !ok {
		h = &History{Owner: t.From}
	}
	next := h.NextSeq()
	switch {
	case t.Seq < next:
		// Slot taken. Identical content means the transfer is already
		// committed, which validates cleanly for idempotent retries.
		committed := h.Debits[t.Seq-1].Transfer
		if committed == t {
			return nil
		}
		return fmt.Errorf("%w: slot %d of %s is taken", ErrTransferSuperseded, t.Seq, t.From)
	case t.Seq > next:
		return fmt.Errorf("%w: slot %d of %s, chain is at %d", ErrHistoryGap, t.Seq, t.From, next)
	}

	prev, err := h.LastDebitID()
	if err != nil {
		return err
	}
	if t.Prev != prev {
		return fmt.Errorf("%w: prev %q does not extend the chain head %q", ErrTransferSuperseded, t.Prev, prev)
	}
	if h.Balance() < t.Amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, t.From, h.Balance(), t.Amount)
	}
	return nil
}

// Certify validates st and signs it. The signature counts toward the
// transfer's debit proof.
func (r *Replica) Certify(st SignedTransfer) (NodeSig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.validateLocked(st); err != nil {
		return NodeSig{}, err
	}
	b, err := st.Transfer.Canonical()
	if err != nil {
		return NodeSig{}, err
	}
	return NodeSig{Node: r.key.ID(), Sig: r.key.Sign(b)}, nil
}

// Commit settles a proven transfer: the debit lands on the sender's
// chain and the credit on the receiver, atomically. Committing the
// same proof again is a no-op.
func (r *Replica) Commit(p DebitProof) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := p.Transfer.Transfer
	if err := r.validateLocked(p.Transfer); err != nil {
		return err
	}
	if len(r.peers) > 0 {
		if err := p.Verify(r.peers, r.threshold); err != nil {
			return err
		}
	}

	from := r.account(t.From)
	if t.Seq < from.NextSeq() {
		// Already committed; validateLocked vouched it is identical.
		return nil
	}
	from.Debits = append(from.Debits, p.Transfer)
	r.account(t.To).addCredit(p.Transfer)
	return nil
}

// NodeID returns the replica's signing identity.
func (r *Replica) NodeID() string { return r.key.ID() }
