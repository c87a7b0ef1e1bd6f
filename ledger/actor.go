package ledger

import (
	"fmt"
	"sync"

	"github.com/weftlabs/weft/keys"
)

// Actor is the sending side of an account: it builds transfers
// against its local copy of the history and folds in the outcomes.
//
// Building does not record anything; a built transfer exists on the
// chain only after Ack with its proof. Callers serialize sends (one
// unacknowledged transfer at a time) or the second build will reuse
// the same slot.
type Actor struct {
	mu   sync.Mutex
	acct *keys.Account
	hist History
}

// NewActor wraps an account and its fetched history.
func NewActor(acct *keys.Account, hist History) (*Actor, error) {
	if hist.Owner == "" {
		hist.Owner = acct.ID()
	}
	if hist.Owner != acct.ID() {
		return nil, fmt.Errorf("%w: history belongs to %s, account is %s", ErrBadTransfer, hist.Owner, acct.ID())
	}
	return &Actor{acct: acct, hist: hist.clone()}, nil
}

// Balance is the settled balance of the local history copy.
func (a *Actor) Balance() Amount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hist.Balance()
}

// History returns a copy of the local history.
func (a *Actor) History() History {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hist.clone()
}

// Build signs a transfer for the next free slot of the chain. It
// fails fast on a balance the local history cannot cover.
func (a *Actor) Build(to string, amount Amount) (SignedTransfer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.hist.Balance() < amount {
		return SignedTransfer{}, fmt.Errorf("%w: %s has %d, needs %d",
			ErrInsufficientBalance, a.acct.ID(), a.hist.Balance(), amount)
	}
	prev, err := a.hist.LastDebitID()
	if err != nil {
		return SignedTransfer{}, err
	}
	return SignTransfer(Transfer{
		From:   a.acct.ID(),
		To:     to,
		Amount: amount,
		Seq:    a.hist.NextSeq(),
		Prev:   prev,
	}, a.acct)
}

// Ack records a settled outgoing transfer on the local chain.
func (a *Actor) Ack(p DebitProof) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := p.Transfer.Transfer
	if t.From != a.acct.ID() {
		return fmt.Errorf("%w: proof debits %s, account is %s", ErrBadTransfer, t.From, a.acct.ID())
	}
	next := a.hist.NextSeq()
	if t.Seq < next {
		return nil
	}
	if t.Seq > next {
		return fmt.Errorf("%w: proof for slot %d, chain is at %d", ErrHistoryGap, t.Seq, next)
	}
	a.hist.Debits = append(a.hist.Debits, p.Transfer)
	return nil
}

// Refresh replaces the local history with a fresher copy from the
// network. Used after ErrTransferSuperseded or ErrHistoryGap.
func (a *Actor) Refresh(hist History) error {
	if hist.Owner != a.acct.ID() {
		return fmt.Errorf("%w: history belongs to %s, account is %s", ErrBadTransfer, hist.Owner, a.acct.ID())
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hist = hist.clone()
	return nil
}
