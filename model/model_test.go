package model_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/weftlabs/weft/blob"
	"github.com/weftlabs/weft/crdt"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/model"
	"github.com/weftlabs/weft/storage"
)

func TestDataIDAddressDeterministic(t *testing.T) {
	d := model.DataID{Tag: model.TagSequence, Owner: "ed25519:abc", Name: "notes"}
	a1, err := d.Address()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	a2, err := d.Address()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if !a1.Equals(a2) {
		t.Fatalf("address not stable: %s vs %s", a1, a2)
	}
}

func TestDataIDAddressDistinct(t *testing.T) {
	base := model.DataID{Tag: model.TagSequence, Owner: "ed25519:abc", Name: "notes"}
	variants := []model.DataID{
		{Tag: model.TagRegister, Owner: "ed25519:abc", Name: "notes"},
		{Tag: model.TagMap, Owner: "ed25519:abc", Name: "notes"},
		{Tag: model.TagSequence, Owner: "ed25519:xyz", Name: "notes"},
		{Tag: model.TagSequence, Owner: "ed25519:abc", Name: "other"},
	}
	want, err := base.Address()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	for _, v := range variants {
		got, err := v.Address()
		if err != nil {
			t.Fatalf("Address(%s): %v", v, err)
		}
		if got.Equals(want) {
			t.Fatalf("%s and %s share an address", base, v)
		}
	}
}

func TestDataIDValidation(t *testing.T) {
	bad := []model.DataID{
		{Tag: "queue", Owner: "ed25519:abc", Name: "notes"},
		{Tag: model.TagSequence, Owner: "", Name: "notes"},
		{Tag: model.TagSequence, Owner: "ed25519:abc", Name: ""},
	}
	for _, d := range bad {
		if _, err := d.Canonical(); err == nil {
			t.Fatalf("Canonical(%+v) accepted", d)
		}
	}
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want model.ErrorCode
	}{
		{nil, ""},
		{storage.ErrNotFound, model.ErrNotFound},
		{fmt.Errorf("fetch: %w", storage.ErrNotFound), model.ErrNotFound},
		{storage.ErrMismatch, model.ErrCorrupt},
		{storage.ErrInvalidCID, model.ErrInvalidRequest},
		{blob.ErrCorrupt, model.ErrCorrupt},
		{blob.ErrSealed, model.ErrInvalidRequest},
		{blob.ErrBadSeal, model.ErrInvalidRequest},
		{crdt.ErrCausalGap, model.ErrCausalGap},
		{crdt.ErrBadOp, model.ErrInvalidRequest},
		{crdt.ErrKindMismatch, model.ErrInvalidRequest},
		{crdt.ErrUnknownTarget, model.ErrNotFound},
		{ledger.ErrHistoryGap, model.ErrCausalGap},
		{ledger.ErrInsufficientBalance, model.ErrInsufficientBalance},
		{ledger.ErrTransferSuperseded, model.ErrTransferSuperseded},
		{ledger.ErrBadTransfer, model.ErrInvalidRequest},
		{ledger.ErrBadProof, model.ErrInvalidSignature},
		{keys.ErrBadSignature, model.ErrInvalidSignature},
		{context.DeadlineExceeded, model.ErrTimeout},
		{errors.New("disk on fire"), model.ErrInternal},
	}
	for _, tc := range cases {
		if got := model.CodeOf(tc.err); got != tc.want {
			t.Errorf("CodeOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCodedError(t *testing.T) {
	ce := model.Coded(fmt.Errorf("get blob: %w", storage.ErrNotFound))
	if ce.Code != model.ErrNotFound {
		t.Fatalf("code = %q, want NOT_FOUND", ce.Code)
	}
	if ce.Error() == "" {
		t.Fatal("empty message")
	}
	if model.Coded(nil) != nil {
		t.Fatal("Coded(nil) should be nil")
	}
}
