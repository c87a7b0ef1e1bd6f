package ledger

import "errors"

var (
	// ErrInsufficientBalance means the sender's settled balance does
	// not cover the transfer amount.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrTransferSuperseded means another transfer already took the
	// transfer's slot in the sender's debit chain. The transfer can
	// never commit; the sender must rebuild on fresh history.
	ErrTransferSuperseded = errors.New("ledger: transfer superseded")

	// ErrHistoryGap means a transfer skips ahead of the sender's
	// known debit chain. Recoverable by fetching current history.
	ErrHistoryGap = errors.New("ledger: transfer ahead of known history")

	// ErrBadTransfer means a transfer is structurally invalid.
	ErrBadTransfer = errors.New("ledger: malformed transfer")

	// ErrBadProof means a debit proof does not carry a valid quorum
	// of node signatures.
	ErrBadProof = errors.New("ledger: debit proof does not meet quorum")
)
