package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS reads from a fixed list of stores in order, returning the
// first hit. A local network uses it to serve a Get from whichever
// node still holds the chunk.
//
// Order is the slice order in Stores; callers supply a fixed order so
// retrieval stays deterministic.
//
// Put writes only to the first store.
type MultiCAS struct {
	Stores []CAS
}

var _ CAS = (*MultiCAS)(nil)

func (m MultiCAS) Put(bytes []byte) (cid.Cid, error) {
	if len(m.Stores) == 0 {
		return cid.Undef, errors.New("storage: MultiCAS has no stores")
	}
	return m.Stores[0].Put(bytes)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range m.Stores {
		b, err := cas.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, cas := range m.Stores {
		if cas.Has(id) {
			return true
		}
	}
	return false
}
