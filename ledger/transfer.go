// Package ledger implements the transfer ledger: per-account debit
// chains with quorum-certified transfers.
//
// Every account's outgoing transfers form a chain: transfer n names
// its position (Seq) and the CID of transfer n-1 (Prev). A replica
// accepts a transfer only at the next free slot of the sender's
// chain, so two concurrent spends of the same money can never both
// commit. Nodes certify the accepted transfer with their signatures;
// a quorum of those forms the DebitProof that settles the transfer
// everywhere.
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/cidutil"
	"github.com/weftlabs/weft/keys"
)

// Amount is a token quantity.
type Amount uint64

// GenesisFrom is the synthetic sender of the credit that mints an
// account's starting balance. It is installed locally at network
// bootstrap and never accepted over the wire.
const GenesisFrom = "genesis"

// Transfer moves tokens between accounts.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount Amount `json:"amount"`
	Seq    uint64 `json:"seq"`
	Prev   string `json:"prev,omitempty"`
}

// Canonical returns the bytes that signatures and the transfer's CID
// cover.
func (t Transfer) Canonical() ([]byte, error) {
	return json.Marshal(t)
}

// ID returns the transfer's CID.
func (t Transfer) ID() (cid.Cid, error) {
	b, err := t.Canonical()
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.CIDv1RawSHA256CID(b)
}

// Validate checks the transfer's shape.
func (t Transfer) Validate() error {
	if t.From == "" || t.To == "" {
		return fmt.Errorf("%w: missing account", ErrBadTransfer)
	}
	if t.From == t.To {
		return fmt.Errorf("%w: sender and receiver are the same account", ErrBadTransfer)
	}
	if t.Amount == 0 {
		return fmt.Errorf("%w: zero amount", ErrBadTransfer)
	}
	if t.Seq == 0 {
		return fmt.Errorf("%w: seq starts at 1", ErrBadTransfer)
	}
	if (t.Seq == 1) != (t.Prev == "") {
		return fmt.Errorf("%w: prev must be set exactly when seq > 1", ErrBadTransfer)
	}
	return nil
}

// SignedTransfer binds a transfer to its sender's signature.
type SignedTransfer struct {
	Transfer Transfer `json:"transfer"`
	Sig      string   `json:"sig"`
}

// SignTransfer signs t with the sending account.
func SignTransfer(t Transfer, acct *keys.Account) (SignedTransfer, error) {
	if err := t.Validate(); err != nil {
		return SignedTransfer{}, err
	}
	if acct.ID() != t.From {
		return SignedTransfer{}, fmt.Errorf("%w: sender %s is not the signing account", ErrBadTransfer, t.From)
	}
	b, err := t.Canonical()
	if err != nil {
		return SignedTransfer{}, err
	}
	return SignedTransfer{Transfer: t, Sig: acct.Sign(b)}, nil
}

// Verify checks the sender's signature.
func (s SignedTransfer) Verify() error {
	b, err := s.Transfer.Canonical()
	if err != nil {
		return err
	}
	return keys.VerifyAccountSig(s.Transfer.From, b, s.Sig)
}

// genesisCredit builds the minting credit for an account.
func genesisCredit(owner string, amount Amount) SignedTransfer {
	return SignedTransfer{Transfer: Transfer{
		From:   GenesisFrom,
		To:     owner,
		Amount: amount,
		Seq:    1,
	}}
}
