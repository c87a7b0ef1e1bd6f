package rpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/storage"
)

// toStatus folds a backend error into a gRPC status. The sentinel
// message rides along so the far side can map the status back to the
// exact sentinel.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, crdt.ErrUnknownTarget):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidCID),
		errors.Is(err, crdt.ErrBadOp),
		errors.Is(err, crdt.ErrKindMismatch),
		errors.Is(err, ledger.ErrBadTransfer),
		errors.Is(err, keys.ErrBadKey):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrMismatch):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, crdt.ErrCausalGap),
		errors.Is(err, ledger.ErrHistoryGap),
		errors.Is(err, ledger.ErrInsufficientBalance):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ledger.ErrTransferSuperseded):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, keys.ErrBadSignature), errors.Is(err, ledger.ErrBadProof):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

var wireSentinels = []error{
	storage.ErrNotFound,
	storage.ErrInvalidCID,
	storage.ErrMismatch,
	crdt.ErrUnknownTarget,
	crdt.ErrBadOp,
	crdt.ErrKindMismatch,
	crdt.ErrCausalGap,
	ledger.ErrBadTransfer,
	ledger.ErrHistoryGap,
	ledger.ErrInsufficientBalance,
	ledger.ErrTransferSuperseded,
	ledger.ErrBadProof,
	keys.ErrBadKey,
	keys.ErrBadSignature,
}

// fromStatus maps a gRPC status back to the sentinel the server
// started from. Codes shared by several sentinels are split on the
// message.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()

	switch st.Code() {
	case codes.NotFound:
		if strings.Contains(msg, crdt.ErrUnknownTarget.Error()) {
			return crdt.ErrUnknownTarget
		}
		return storage.ErrNotFound
	case codes.InvalidArgument:
		switch {
		case strings.Contains(msg, crdt.ErrBadOp.Error()):
			return crdt.ErrBadOp
		case strings.Contains(msg, crdt.ErrKindMismatch.Error()):
			return crdt.ErrKindMismatch
		case strings.Contains(msg, ledger.ErrBadTransfer.Error()):
			return ledger.ErrBadTransfer
		case strings.Contains(msg, keys.ErrBadKey.Error()):
			return keys.ErrBadKey
		}
		return storage.ErrInvalidCID
	case codes.DataLoss:
		return storage.ErrMismatch
	case codes.FailedPrecondition:
		switch {
		case strings.Contains(msg, ledger.ErrHistoryGap.Error()):
			return ledger.ErrHistoryGap
		case strings.Contains(msg, ledger.ErrInsufficientBalance.Error()):
			return ledger.ErrInsufficientBalance
		}
		return crdt.ErrCausalGap
	case codes.Aborted:
		return ledger.ErrTransferSuperseded
	case codes.Unauthenticated:
		if strings.Contains(msg, ledger.ErrBadProof.Error()) {
			return ledger.ErrBadProof
		}
		return keys.ErrBadSignature
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Canceled:
		return context.Canceled
	default:
		// Best-effort: if the server sent a known sentinel message, preserve it.
		for _, sentinel := range wireSentinels {
			if strings.Contains(msg, sentinel.Error()) {
				return sentinel
			}
		}
		return err
	}
}
