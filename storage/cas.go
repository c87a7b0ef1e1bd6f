// Package storage defines the chunk store every node carries.
//
// A chunk store is content-addressed: the only key for a stored object
// is the CIDv1 of its bytes. Blobs, op records and ledger proofs are
// all persisted through this one interface, which keeps replication
// and fallback logic (MultiCAS, ReplicatingCAS) independent of what
// the bytes mean.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent: storing the same bytes twice returns the same CID.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent, and MUST NOT
//   return bytes that do not hash to the requested CID.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
