// Package client is the application-facing surface of a weft network:
// immutable blobs, replicated mutable data and token transfers behind
// one account-bound handle.
//
// The client keeps a local replica of every target it touches. Reads
// pull the network first and then answer from the local replica;
// mutations apply locally first and are pushed after, so a lost push
// is repaired by the gap recovery of the next one.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/blob"
	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
)

// Network is the node surface the client needs. fleet.Fleet, node.Node
// and rpc.Client all satisfy it.
type Network interface {
	PutChunk(ctx context.Context, data []byte) (cid.Cid, error)
	GetChunk(ctx context.Context, id cid.Cid) ([]byte, error)
	SubmitOp(ctx context.Context, sop crdt.SignedOp) (crdt.ApplyResult, error)
	Ops(ctx context.Context, target string, since crdt.VClock) ([]crdt.SignedOp, crdt.VClock, error)
	SubmitTransfer(ctx context.Context, st ledger.SignedTransfer) (ledger.DebitProof, error)
	History(ctx context.Context, owner string) (ledger.History, error)
}

type Config struct {
	Network Network
	Account *keys.Account

	// Retry bounds the attempts per network call. Zero value means
	// DefaultRetry.
	Retry RetryPolicy

	Logger *slog.Logger
}

// Client binds one account to one network.
type Client struct {
	net   Network
	acct  *keys.Account
	blobs *blob.Store
	retry RetryPolicy
	log   *slog.Logger

	mirror *crdt.Replica

	// mu serializes op building and the transfer chain.
	mu    sync.Mutex
	actor *ledger.Actor
}

func New(cfg Config) (*Client, error) {
	if cfg.Network == nil {
		return nil, errors.New("client: config needs a network")
	}
	if cfg.Account == nil {
		return nil, errors.New("client: config needs an account")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		net:    cfg.Network,
		acct:   cfg.Account,
		retry:  cfg.Retry.norm(),
		log:    logger,
		mirror: crdt.NewReplica(),
	}
	c.blobs = blob.NewStore(retryChunks{c})
	return c, nil
}

// ID is the client's account id.
func (c *Client) ID() string { return c.acct.ID() }

// retryChunks adapts the network's chunk surface for the blob store,
// with the client's retry policy applied.
type retryChunks struct{ c *Client }

func (r retryChunks) PutChunk(ctx context.Context, data []byte) (cid.Cid, error) {
	return withRetry(ctx, r.c.retry, r.c.log, "PutChunk", func(ctx context.Context) (cid.Cid, error) {
		return r.c.net.PutChunk(ctx, data)
	})
}

func (r retryChunks) GetChunk(ctx context.Context, id cid.Cid) ([]byte, error) {
	return withRetry(ctx, r.c.retry, r.c.log, "GetChunk", func(ctx context.Context) ([]byte, error) {
		return r.c.net.GetChunk(ctx, id)
	})
}

// PutBlob stores content and returns the root CID that fetches it.
func (c *Client) PutBlob(ctx context.Context, content []byte) (cid.Cid, error) {
	return c.blobs.Put(ctx, content)
}

// GetBlob fetches and reassembles content by its root CID.
func (c *Client) GetBlob(ctx context.Context, root cid.Cid) ([]byte, error) {
	return c.blobs.Get(ctx, root)
}

// PutSealedBlob stores content encrypted under key. The same content
// and key always land on the same root CID.
func (c *Client) PutSealedBlob(ctx context.Context, content, key []byte) (cid.Cid, error) {
	return c.blobs.PutSealed(ctx, content, key)
}

// GetSealedBlob fetches sealed content and opens it with key.
func (c *Client) GetSealedBlob(ctx context.Context, root cid.Cid, key []byte) ([]byte, error) {
	return c.blobs.GetSealed(ctx, root, key)
}

// opsResult carries one Ops reply through the retry helper.
type opsResult struct {
	ops   []crdt.SignedOp
	clock crdt.VClock
}

func (c *Client) pullOps(ctx context.Context, target string, since crdt.VClock) (opsResult, error) {
	return withRetry(ctx, c.retry, c.log, "Ops", func(ctx context.Context) (opsResult, error) {
		ops, clock, err := c.net.Ops(ctx, target, since)
		return opsResult{ops: ops, clock: clock}, err
	})
}

// sync pulls the ops the local replica lacks for one target.
func (c *Client) sync(ctx context.Context, target string) error {
	inst := c.mirror.Instance(target)
	res, err := c.pullOps(ctx, target, inst.Clock())
	if err != nil {
		return err
	}
	for _, sop := range res.ops {
		if _, err := c.mirror.Apply(sop); err != nil {
			return err
		}
	}
	if n := inst.PendingCount(); n > 0 {
		return fmt.Errorf("%w: %d ops for %s still lack dependencies after sync", crdt.ErrCausalGap, n, target)
	}
	return nil
}

// mutate issues one op: build fills in the kind-specific fields, then
// the op is signed, applied to the local replica and pushed. Building
// and the local apply run under c.mu so dots from one client never
// collide; the push does not.
func (c *Client) mutate(ctx context.Context, target string, kind crdt.Kind, build func(inst *crdt.Instance, op *crdt.Op) error) (crdt.Dot, error) {
	c.mu.Lock()
	op, inst := c.nextOp(target, kind)
	err := build(inst, &op)
	var sop crdt.SignedOp
	if err == nil {
		sop, err = crdt.Sign(op, c.acct)
	}
	if err == nil {
		_, err = c.mirror.Apply(sop)
	}
	c.mu.Unlock()
	if err != nil {
		return crdt.Dot{}, err
	}
	if err := c.push(ctx, sop); err != nil {
		return crdt.Dot{}, err
	}
	return op.ID, nil
}

// push delivers one op. When the network defers it, the deps it is
// missing are ops this client has already applied, so they are sent
// ahead and the op is delivered again.
func (c *Client) push(ctx context.Context, sop crdt.SignedOp) error {
	res, err := c.submitOp(ctx, sop)
	if err != nil {
		return err
	}
	if res.Status != crdt.StatusDeferred {
		return nil
	}

	inst := c.mirror.Instance(sop.Op.Target)
	remote, err := c.pullOps(ctx, sop.Op.Target, inst.Clock())
	if err != nil {
		return err
	}
	for _, r := range remote.ops {
		if _, err := c.mirror.Apply(r); err != nil {
			return err
		}
	}
	c.log.Debug("backfilling ops", "target", sop.Op.Target, "op", sop.Op.ID)
	for _, missing := range inst.OpsSince(remote.clock) {
		if _, err := c.submitOp(ctx, missing); err != nil {
			return err
		}
	}
	res, err = c.submitOp(ctx, sop)
	if err != nil {
		return err
	}
	if res.Status == crdt.StatusDeferred {
		return fmt.Errorf("%w: network still missing dependencies for %s", crdt.ErrCausalGap, sop.Op.ID)
	}
	return nil
}

func (c *Client) submitOp(ctx context.Context, sop crdt.SignedOp) (crdt.ApplyResult, error) {
	return withRetry(ctx, c.retry, c.log, "SubmitOp", func(ctx context.Context) (crdt.ApplyResult, error) {
		return c.net.SubmitOp(ctx, sop)
	})
}

// nextOp starts an op for the next free dot of this client's actor on
// target. Caller holds c.mu.
func (c *Client) nextOp(target string, kind crdt.Kind) (crdt.Op, *crdt.Instance) {
	inst := c.mirror.Instance(target)
	clock := inst.Clock()
	actor := crdt.Actor(c.acct.ID())
	return crdt.Op{
		ID:     crdt.Dot{Actor: actor, Seq: clock.Get(actor) + 1},
		Kind:   kind,
		Target: target,
		Ctx:    clock,
	}, inst
}
