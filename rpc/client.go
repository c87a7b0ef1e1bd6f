package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/weftlabs/weft/cidutil"
	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/storage"
)

// Client talks to a Node service. It satisfies Backend, so local and
// remote nodes are interchangeable to callers.
type Client struct {
	cc     *grpc.ClientConn
	client NodeClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(requestIDInterceptor()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewNodeClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) PutChunk(ctx context.Context, data []byte) (cid.Cid, error) {
	expected, err := cidutil.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.PutChunk(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return cid.Undef, fromStatus(err)
	}
	id, err := cid.Decode(reply.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	if id.String() != expected.String() {
		return cid.Undef, storage.ErrMismatch
	}
	return id, nil
}

func (c *Client) GetChunk(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.GetChunk(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return nil, fromStatus(err)
	}
	b := reply.GetValue()
	// Never trust the wire: the bytes must still hash to the CID asked for.
	if !cidutil.Matches(id, b) {
		return nil, storage.ErrMismatch
	}
	return b, nil
}

func (c *Client) HasChunk(ctx context.Context, id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.HasChunk(ctx, wrapperspb.String(id.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) SubmitOp(ctx context.Context, sop crdt.SignedOp) (crdt.ApplyResult, error) {
	raw, err := json.Marshal(sop)
	if err != nil {
		return crdt.ApplyResult{}, fmt.Errorf("%w: %v", crdt.ErrBadOp, err)
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.SubmitOp(ctx, wrapperspb.Bytes(raw))
	if err != nil {
		return crdt.ApplyResult{}, fromStatus(err)
	}
	var resp applyResponse
	if err := json.Unmarshal(reply.GetValue(), &resp); err != nil {
		return crdt.ApplyResult{}, fmt.Errorf("rpc: malformed apply response: %w", err)
	}
	st, err := crdt.ParseStatus(resp.Status)
	if err != nil {
		return crdt.ApplyResult{}, err
	}
	return crdt.ApplyResult{Status: st, Missing: resp.Missing}, nil
}

func (c *Client) Ops(ctx context.Context, target string, since crdt.VClock) ([]crdt.SignedOp, crdt.VClock, error) {
	raw, err := json.Marshal(opsRequest{Target: target, Since: since})
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Ops(ctx, wrapperspb.Bytes(raw))
	if err != nil {
		return nil, nil, fromStatus(err)
	}
	var resp opsResponse
	if err := json.Unmarshal(reply.GetValue(), &resp); err != nil {
		return nil, nil, fmt.Errorf("rpc: malformed ops response: %w", err)
	}
	if resp.Clock == nil {
		resp.Clock = crdt.VClock{}
	}
	return resp.Ops, resp.Clock, nil
}

func (c *Client) SubmitTransfer(ctx context.Context, st ledger.SignedTransfer) (ledger.DebitProof, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return ledger.DebitProof{}, fmt.Errorf("%w: %v", ledger.ErrBadTransfer, err)
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.SubmitTransfer(ctx, wrapperspb.Bytes(raw))
	if err != nil {
		return ledger.DebitProof{}, fromStatus(err)
	}
	var proof ledger.DebitProof
	if err := json.Unmarshal(reply.GetValue(), &proof); err != nil {
		return ledger.DebitProof{}, fmt.Errorf("rpc: malformed debit proof: %w", err)
	}
	return proof, nil
}

func (c *Client) History(ctx context.Context, owner string) (ledger.History, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.History(ctx, wrapperspb.String(owner))
	if err != nil {
		return ledger.History{}, fromStatus(err)
	}
	var hist ledger.History
	if err := json.Unmarshal(reply.GetValue(), &hist); err != nil {
		return ledger.History{}, fmt.Errorf("rpc: malformed history: %w", err)
	}
	return hist, nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
