package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/cidutil"
)

// NamedCAS associates a store with a stable name, usually the name of
// the node that carries it. The name keys the per-store CID map that
// PutAll reports.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes every chunk to all member stores. A local
// network wraps its nodes' stores in one so a successful Put means
// full replication.
//
// Reads fall back in member order. All members must return the
// canonical CID on Put; a disagreeing member yields ErrMismatch.
type ReplicatingCAS struct {
	Members []NamedCAS
}

var _ CAS = (*ReplicatingCAS)(nil)

// PutAll writes the same bytes to all members and returns the
// canonical CID plus the CID each member reported. A member returning
// a different CID fails the write with ErrMismatch.
func (r ReplicatingCAS) PutAll(bytes []byte) (cid.Cid, map[string]cid.Cid, error) {
	want, err := cidutil.CIDv1RawSHA256CID(bytes)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !want.Defined() {
		return cid.Undef, nil, ErrInvalidCID
	}
	if len(r.Members) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingCAS has no members")
	}

	out := make(map[string]cid.Cid, len(r.Members))
	for _, m := range r.Members {
		if m.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for member %q", m.Name)
		}
		got, err := m.CAS.Put(bytes)
		if err != nil {
			return cid.Undef, nil, fmt.Errorf("storage: put to %q: %w", m.Name, err)
		}
		out[m.Name] = got
		if got != want {
			return cid.Undef, out, ErrMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(bytes []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(bytes)
	return id, err
}

func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	for _, m := range r.Members {
		if m.CAS == nil {
			continue
		}
		out, err := m.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	for _, m := range r.Members {
		if m.CAS != nil && m.CAS.Has(id) {
			return true
		}
	}
	return false
}
