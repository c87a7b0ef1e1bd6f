package rpc

import (
	"context"
	"encoding/json"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/weftlabs/weft/cidutil"
	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/storage"
)

// Backend is the surface the Node service exposes. Both node.Node and
// fleet.Fleet satisfy it.
type Backend interface {
	PutChunk(ctx context.Context, data []byte) (cid.Cid, error)
	GetChunk(ctx context.Context, id cid.Cid) ([]byte, error)
	HasChunk(ctx context.Context, id cid.Cid) bool
	SubmitOp(ctx context.Context, sop crdt.SignedOp) (crdt.ApplyResult, error)
	Ops(ctx context.Context, target string, since crdt.VClock) ([]crdt.SignedOp, crdt.VClock, error)
	SubmitTransfer(ctx context.Context, st ledger.SignedTransfer) (ledger.DebitProof, error)
	History(ctx context.Context, owner string) (ledger.History, error)
}

// Server exposes a Backend over the Node gRPC service.
type Server struct {
	UnimplementedNodeServer
	Backend Backend
}

func (s *Server) PutChunk(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	b := in.GetValue()
	// Enforce the repo's CID contract on the server side too.
	expected, err := cidutil.CIDv1RawSHA256CID(b)
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	id, err := s.Backend.PutChunk(ctx, b)
	if err != nil {
		return nil, toStatus(err)
	}
	if id.String() != expected.String() {
		return nil, status.Error(codes.DataLoss, storage.ErrMismatch.Error())
	}
	return wrapperspb.String(id.String()), nil
}

func (s *Server) GetChunk(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	b, err := s.Backend.GetChunk(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if !cidutil.Matches(id, b) {
		return nil, status.Error(codes.DataLoss, storage.ErrMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) HasChunk(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return wrapperspb.Bool(s.Backend.HasChunk(ctx, id)), nil
}

func (s *Server) SubmitOp(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	var sop crdt.SignedOp
	if err := json.Unmarshal(in.GetValue(), &sop); err != nil {
		return nil, status.Error(codes.InvalidArgument, crdt.ErrBadOp.Error())
	}
	res, err := s.Backend.SubmitOp(ctx, sop)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := json.Marshal(applyResponse{Status: res.Status.String(), Missing: res.Missing})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return wrapperspb.Bytes(out), nil
}

func (s *Server) Ops(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	var req opsRequest
	if err := json.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed ops request")
	}
	ops, clock, err := s.Backend.Ops(ctx, req.Target, req.Since)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := json.Marshal(opsResponse{Ops: ops, Clock: clock})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return wrapperspb.Bytes(out), nil
}

func (s *Server) SubmitTransfer(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	var st ledger.SignedTransfer
	if err := json.Unmarshal(in.GetValue(), &st); err != nil {
		return nil, status.Error(codes.InvalidArgument, ledger.ErrBadTransfer.Error())
	}
	proof, err := s.Backend.SubmitTransfer(ctx, st)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := json.Marshal(proof)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return wrapperspb.Bytes(out), nil
}

func (s *Server) History(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	hist, err := s.Backend.History(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := json.Marshal(hist)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return wrapperspb.Bytes(out), nil
}
