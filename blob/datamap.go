package blob

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/cidutil"
	"github.com/weftlabs/weft/storage"
)

const (
	// MaxChunkSize bounds every chunk handed to the store, including
	// the root chunk holding the blob's descriptor.
	MaxChunkSize = 1 << 20

	// MaxInlineSize is the largest content stored directly inside its
	// data map instead of as separate chunks.
	MaxInlineSize = 3072
)

// ChunkRef locates one chunk of a split byte stream.
type ChunkRef struct {
	CID  string `json:"cid"`
	Size int64  `json:"size"`
}

// DataMap describes how to reassemble a byte stream: the bytes
// themselves for small content, or the chunk addresses in order.
type DataMap struct {
	Length int64      `json:"length"`
	Inline []byte     `json:"inline,omitempty"`
	Chunks []ChunkRef `json:"chunks,omitempty"`
}

// split stores data as bounded chunks and returns its map. Content at
// or below the inline bound never touches the store.
func (s *Store) split(ctx context.Context, data []byte) (DataMap, error) {
	dm := DataMap{Length: int64(len(data))}
	if len(data) <= s.inlineSize {
		dm.Inline = append([]byte(nil), data...)
		return dm, nil
	}
	for off := 0; off < len(data); off += s.chunkSize {
		end := off + s.chunkSize
		if end > len(data) {
			end = len(data)
		}
		piece := data[off:end]
		id, err := s.chunks.PutChunk(ctx, piece)
		if err != nil {
			return DataMap{}, fmt.Errorf("blob: store chunk: %w", err)
		}
		dm.Chunks = append(dm.Chunks, ChunkRef{CID: id.String(), Size: int64(len(piece))})
	}
	return dm, nil
}

// assemble reads a map's chunks back into the original byte stream,
// verifying every chunk against its address on the way.
func (s *Store) assemble(ctx context.Context, dm DataMap) ([]byte, error) {
	if len(dm.Chunks) == 0 {
		if int64(len(dm.Inline)) != dm.Length {
			return nil, fmt.Errorf("%w: inline content is %d bytes, map says %d",
				ErrCorrupt, len(dm.Inline), dm.Length)
		}
		return append([]byte(nil), dm.Inline...), nil
	}
	out := make([]byte, 0, dm.Length)
	for _, ref := range dm.Chunks {
		piece, err := s.fetchChunk(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, piece...)
	}
	if int64(len(out)) != dm.Length {
		return nil, fmt.Errorf("%w: reassembled %d bytes, map says %d",
			ErrCorrupt, len(out), dm.Length)
	}
	return out, nil
}

func (s *Store) fetchChunk(ctx context.Context, ref ChunkRef) ([]byte, error) {
	id, err := cid.Decode(ref.CID)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk address %q: %v", ErrCorrupt, ref.CID, err)
	}
	data, err := s.chunks.GetChunk(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("blob: fetch chunk %s: %w", id, err)
	}
	if !cidutil.Matches(id, data) {
		return nil, fmt.Errorf("%w: chunk %s", storage.ErrMismatch, id)
	}
	if int64(len(data)) != ref.Size {
		return nil, fmt.Errorf("%w: chunk %s is %d bytes, map says %d",
			ErrCorrupt, id, len(data), ref.Size)
	}
	return data, nil
}
