package ledger

import "sort"

// History is one account's view of the ledger: its debit chain in
// order plus every credit that reached it. Replicas serve it whole;
// a client rebuilds balance and next slot from it alone.
type History struct {
	Owner   string           `json:"owner"`
	Debits  []SignedTransfer `json:"debits"`
	Credits []SignedTransfer `json:"credits"`
}

// Balance is credits minus debits.
func (h History) Balance() Amount {
	var in, out Amount
	for _, c := range h.Credits {
		in += c.Transfer.Amount
	}
	for _, d := range h.Debits {
		out += d.Transfer.Amount
	}
	if out > in {
		return 0
	}
	return in - out
}

// NextSeq is the next free slot in the debit chain.
func (h History) NextSeq() uint64 {
	return uint64(len(h.Debits)) + 1
}

// LastDebitID is the CID of the newest debit, empty for a fresh
// chain.
func (h History) LastDebitID() (string, error) {
	if len(h.Debits) == 0 {
		return "", nil
	}
	id, err := h.Debits[len(h.Debits)-1].Transfer.ID()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// clone returns an independent copy safe to hand across goroutines.
func (h History) clone() History {
	out := History{Owner: h.Owner}
	out.Debits = append([]SignedTransfer(nil), h.Debits...)
	out.Credits = append([]SignedTransfer(nil), h.Credits...)
	return out
}

// addCredit inserts a credit, ignoring redelivery of the same
// (sender, seq) slot and keeping credits in a deterministic order
// independent of arrival.
func (h *History) addCredit(st SignedTransfer) {
	for _, c := range h.Credits {
		if c.Transfer.From == st.Transfer.From && c.Transfer.Seq == st.Transfer.Seq {
			return
		}
	}
	h.Credits = append(h.Credits, st)
	sort.Slice(h.Credits, func(i, j int) bool {
		a, b := h.Credits[i].Transfer, h.Credits[j].Transfer
		if a.From != b.From {
			return a.From < b.From
		}
		return a.Seq < b.Seq
	})
}
