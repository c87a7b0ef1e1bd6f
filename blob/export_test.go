package blob

// NewStoreWithLimits shrinks the chunk and inline bounds so packing
// is reachable with small test inputs.
func NewStoreWithLimits(chunks ChunkStore, chunkSize, inlineSize int) *Store {
	return &Store{chunks: chunks, chunkSize: chunkSize, inlineSize: inlineSize}
}
