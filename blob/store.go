// Package blob implements the content store: immutable byte streams
// split into bounded chunks and addressed by the CID of a root chunk
// holding the blob's descriptor.
//
// A blob can optionally be sealed: the content is boxed under a
// symmetric key before chunking, so holders of the address alone
// cannot read it. Plain and sealed blobs are fetched through distinct
// calls and the wrong one fails.
package blob

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/cidutil"
	"github.com/weftlabs/weft/storage"
)

// maxPackDepth bounds envelope packing. An honest map packs in two
// or three rounds; anything deeper is hostile or broken.
const maxPackDepth = 12

// ChunkStore is the chunk transport a Store reads and writes through.
type ChunkStore interface {
	PutChunk(ctx context.Context, data []byte) (cid.Cid, error)
	GetChunk(ctx context.Context, id cid.Cid) ([]byte, error)
}

// CASStore adapts a storage.CAS to the ChunkStore interface.
type CASStore struct {
	CAS storage.CAS
}

func (c CASStore) PutChunk(_ context.Context, data []byte) (cid.Cid, error) {
	return c.CAS.Put(data)
}

func (c CASStore) GetChunk(_ context.Context, id cid.Cid) ([]byte, error) {
	return c.CAS.Get(id)
}

// envelope is the root chunk's payload. Map describes the content
// (sealed or not); Packed instead points at chunks of a larger
// envelope that did not fit in one chunk.
type envelope struct {
	Sealed bool     `json:"sealed,omitempty"`
	Map    *DataMap `json:"map,omitempty"`
	Packed *DataMap `json:"packed,omitempty"`
}

// Store reads and writes blobs over a chunk transport.
type Store struct {
	chunks     ChunkStore
	chunkSize  int
	inlineSize int
}

// NewStore builds a blob store over chunks.
func NewStore(chunks ChunkStore) *Store {
	return &Store{chunks: chunks, chunkSize: MaxChunkSize, inlineSize: MaxInlineSize}
}

// Put stores data and returns the blob's address. Identical content
// always lands at the identical address.
func (s *Store) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	dm, err := s.split(ctx, data)
	if err != nil {
		return cid.Undef, err
	}
	return s.putRoot(ctx, envelope{Map: &dm})
}

// PutSealed stores data boxed under key. Only GetSealed with the same
// key reads it back.
func (s *Store) PutSealed(ctx context.Context, data, key []byte) (cid.Cid, error) {
	box, err := seal(data, key)
	if err != nil {
		return cid.Undef, err
	}
	dm, err := s.split(ctx, box)
	if err != nil {
		return cid.Undef, err
	}
	return s.putRoot(ctx, envelope{Sealed: true, Map: &dm})
}

// Get fetches and reassembles the blob at root.
func (s *Store) Get(ctx context.Context, root cid.Cid) ([]byte, error) {
	env, err := s.getRoot(ctx, root)
	if err != nil {
		return nil, err
	}
	if env.Sealed {
		return nil, fmt.Errorf("%w: %s", ErrSealed, root)
	}
	return s.assemble(ctx, *env.Map)
}

// GetSealed fetches the blob at root and opens it with key.
func (s *Store) GetSealed(ctx context.Context, root cid.Cid, key []byte) ([]byte, error) {
	env, err := s.getRoot(ctx, root)
	if err != nil {
		return nil, err
	}
	if !env.Sealed {
		return nil, fmt.Errorf("%w: %s", ErrNotSealed, root)
	}
	box, err := s.assemble(ctx, *env.Map)
	if err != nil {
		return nil, err
	}
	return open(box, key)
}

// putRoot stores an envelope as the blob's root chunk. An envelope
// whose serialized form exceeds the chunk bound is split and wrapped
// in a fresh envelope until one fits.
func (s *Store) putRoot(ctx context.Context, env envelope) (cid.Cid, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return cid.Undef, err
	}
	for depth := 0; len(b) > s.chunkSize; depth++ {
		if depth == maxPackDepth {
			return cid.Undef, fmt.Errorf("blob: descriptor will not pack below %d bytes", s.chunkSize)
		}
		dm, err := s.split(ctx, b)
		if err != nil {
			return cid.Undef, err
		}
		if b, err = json.Marshal(envelope{Packed: &dm}); err != nil {
			return cid.Undef, err
		}
	}
	id, err := s.chunks.PutChunk(ctx, b)
	if err != nil {
		return cid.Undef, fmt.Errorf("blob: store root: %w", err)
	}
	return id, nil
}

// getRoot fetches the root chunk and unwraps packing until it holds
// the content's envelope.
func (s *Store) getRoot(ctx context.Context, root cid.Cid) (envelope, error) {
	if !root.Defined() {
		return envelope{}, storage.ErrInvalidCID
	}
	b, err := s.chunks.GetChunk(ctx, root)
	if err != nil {
		return envelope{}, fmt.Errorf("blob: fetch root %s: %w", root, err)
	}
	if !cidutil.Matches(root, b) {
		return envelope{}, fmt.Errorf("%w: root %s", storage.ErrMismatch, root)
	}
	for depth := 0; ; depth++ {
		if depth == maxPackDepth {
			return envelope{}, fmt.Errorf("%w: packing deeper than %d levels", ErrCorrupt, maxPackDepth)
		}
		var env envelope
		if err := json.Unmarshal(b, &env); err != nil {
			return envelope{}, fmt.Errorf("%w: envelope: %v", ErrCorrupt, err)
		}
		if env.Packed == nil {
			if env.Map == nil {
				return envelope{}, fmt.Errorf("%w: envelope holds no map", ErrCorrupt)
			}
			return env, nil
		}
		if b, err = s.assemble(ctx, *env.Packed); err != nil {
			return envelope{}, err
		}
	}
}
