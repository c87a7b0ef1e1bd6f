// Package cidutil derives content identifiers for chunks and records.
//
// Every address in the network is a CIDv1 over the raw bytes of the
// stored value: the "raw" multicodec plus a sha2-256 multihash. Chunk
// stores, the op log, and the ledger all use the same derivation so
// that any holder of the bytes can recompute and check the address.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns the CIDv1 string (raw + sha2-256) for data.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum cannot fail for SHA2_256 with default length.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns the CIDv1 (raw + sha2-256) for data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Matches reports whether data hashes to id. Callers use it to check
// bytes received from an untrusted store against the address they
// asked for.
func Matches(id cid.Cid, data []byte) bool {
	sum, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return false
	}
	return sum.Equals(id)
}
