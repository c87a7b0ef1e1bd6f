package client

import (
	"context"
	"errors"

	"github.com/weftlabs/weft/ledger"
)

// ensureActorLocked lazily builds the transfer actor from the
// network's history. Caller holds c.mu.
func (c *Client) ensureActorLocked(ctx context.Context) error {
	if c.actor != nil {
		return nil
	}
	hist, err := c.fetchHistory(ctx)
	if err != nil {
		return err
	}
	actor, err := ledger.NewActor(c.acct, hist)
	if err != nil {
		return err
	}
	c.actor = actor
	return nil
}

func (c *Client) fetchHistory(ctx context.Context) (ledger.History, error) {
	return withRetry(ctx, c.retry, c.log, "History", func(ctx context.Context) (ledger.History, error) {
		return c.net.History(ctx, c.acct.ID())
	})
}

// Balance fetches the account's history and returns its settled
// balance.
func (c *Client) Balance(ctx context.Context) (ledger.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureActorLocked(ctx); err != nil {
		return 0, err
	}
	hist, err := c.fetchHistory(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.actor.Refresh(hist); err != nil {
		return 0, err
	}
	return c.actor.Balance(), nil
}

// History returns the account's debit chain and credits as the
// network knows them.
func (c *Client) History(ctx context.Context) (ledger.History, error) {
	return c.fetchHistory(ctx)
}

// Send transfers amount to another account and returns the settled
// proof.
//
// ErrTransferSuperseded and ErrHistoryGap mean the account spent from
// elsewhere since this client last looked. The local history is
// refreshed before returning, so a retry builds on the winning chain.
func (c *Client) Send(ctx context.Context, to string, amount ledger.Amount) (ledger.DebitProof, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureActorLocked(ctx); err != nil {
		return ledger.DebitProof{}, err
	}

	st, err := c.actor.Build(to, amount)
	if err != nil {
		return ledger.DebitProof{}, err
	}
	proof, err := withRetry(ctx, c.retry, c.log, "SubmitTransfer", func(ctx context.Context) (ledger.DebitProof, error) {
		return c.net.SubmitTransfer(ctx, st)
	})
	if err != nil {
		if errors.Is(err, ledger.ErrTransferSuperseded) || errors.Is(err, ledger.ErrHistoryGap) {
			if hist, herr := c.fetchHistory(ctx); herr == nil {
				if rerr := c.actor.Refresh(hist); rerr != nil {
					c.log.Warn("history refresh rejected", "err", rerr)
				}
			} else {
				c.log.Warn("history refresh failed", "err", herr)
			}
		}
		return ledger.DebitProof{}, err
	}
	if err := c.actor.Ack(proof); err != nil {
		return proof, err
	}
	c.log.Debug("transfer settled", "to", to, "amount", amount, "seq", st.Transfer.Seq)
	return proof, nil
}
