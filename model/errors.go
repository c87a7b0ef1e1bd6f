package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/weftlabs/weft/blob"
	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/storage"
)

type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrCorrupt             ErrorCode = "CORRUPT"
	ErrCausalGap           ErrorCode = "CAUSAL_GAP"
	ErrInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrTransferSuperseded  ErrorCode = "TRANSFER_SUPERSEDED"
	ErrInvalidSignature    ErrorCode = "INVALID_SIGNATURE"
	ErrTimeout             ErrorCode = "TIMEOUT"
	ErrInternal            ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a
// human message. The CLI renders these as JSON.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// CodeOf maps an error from any layer to its stable code.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrMismatch), errors.Is(err, storage.ErrImmutable):
		return ErrCorrupt
	case errors.Is(err, blob.ErrCorrupt):
		return ErrCorrupt
	case errors.Is(err, blob.ErrSealed), errors.Is(err, blob.ErrNotSealed), errors.Is(err, blob.ErrBadSeal):
		return ErrInvalidRequest
	case errors.Is(err, storage.ErrInvalidCID):
		return ErrInvalidRequest
	case errors.Is(err, crdt.ErrUnknownTarget):
		return ErrNotFound
	case errors.Is(err, crdt.ErrCausalGap), errors.Is(err, ledger.ErrHistoryGap):
		return ErrCausalGap
	case errors.Is(err, crdt.ErrBadOp), errors.Is(err, crdt.ErrKindMismatch):
		return ErrInvalidRequest
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, ledger.ErrTransferSuperseded):
		return ErrTransferSuperseded
	case errors.Is(err, ledger.ErrBadTransfer):
		return ErrInvalidRequest
	case errors.Is(err, keys.ErrBadSignature), errors.Is(err, ledger.ErrBadProof):
		return ErrInvalidSignature
	case errors.Is(err, keys.ErrBadKey):
		return ErrInvalidRequest
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return ErrInternal
	}
}

// Coded wraps err into a CodedError, preserving the message.
func Coded(err error) *CodedError {
	if err == nil {
		return nil
	}
	return NewError(CodeOf(err), err.Error())
}
