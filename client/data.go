package client

import (
	"context"

	"github.com/weftlabs/weft/crdt"
)

// Handles on replicated data. Reads pull the network before answering
// from the local replica. Mutations cover the writer's observed past:
// a remove only tombstones versions the client has seen, and a write
// only supersedes them. Read first to observe the network's latest.

// Sequence is a handle on one replicated sequence.
type Sequence struct {
	c      *Client
	target string
}

func (c *Client) Sequence(target string) *Sequence {
	return &Sequence{c: c, target: target}
}

// Read returns the live elements in document order.
func (s *Sequence) Read(ctx context.Context) ([]crdt.Elem, error) {
	if err := s.c.sync(ctx, s.target); err != nil {
		return nil, err
	}
	return s.c.mirror.Instance(s.target).Sequence()
}

// Append inserts value after the last element the client has seen.
func (s *Sequence) Append(ctx context.Context, value []byte) (crdt.Dot, error) {
	return s.c.mutate(ctx, s.target, crdt.KindSequenceInsert, func(inst *crdt.Instance, op *crdt.Op) error {
		elems, err := inst.Sequence()
		if err != nil {
			return err
		}
		if len(elems) > 0 {
			last := elems[len(elems)-1].ID
			op.Anchor = &last
		}
		op.Value = value
		return nil
	})
}

// InsertAfter inserts value directly after the element anchor. A nil
// anchor inserts at the front.
func (s *Sequence) InsertAfter(ctx context.Context, anchor *crdt.Dot, value []byte) (crdt.Dot, error) {
	return s.c.mutate(ctx, s.target, crdt.KindSequenceInsert, func(inst *crdt.Instance, op *crdt.Op) error {
		op.Anchor = anchor
		op.Value = value
		return nil
	})
}

// Remove tombstones the element entry. Concurrent inserts anchored on
// it keep their place.
func (s *Sequence) Remove(ctx context.Context, entry crdt.Dot) error {
	_, err := s.c.mutate(ctx, s.target, crdt.KindSequenceRemove, func(inst *crdt.Instance, op *crdt.Op) error {
		op.Entry = &entry
		return nil
	})
	return err
}

// Register is a handle on one replicated multi-value register.
type Register struct {
	c      *Client
	target string
}

func (c *Client) Register(target string) *Register {
	return &Register{c: c, target: target}
}

// Read returns the causally maximal values. One element means the
// register is resolved; more mean concurrent writes await a
// superseding one.
func (r *Register) Read(ctx context.Context) ([]crdt.Version, error) {
	if err := r.c.sync(ctx, r.target); err != nil {
		return nil, err
	}
	return r.c.mirror.Instance(r.target).Register()
}

// Write sets the register, superseding every version the client has
// observed.
func (r *Register) Write(ctx context.Context, value []byte) (crdt.Dot, error) {
	return r.c.mutate(ctx, r.target, crdt.KindRegisterWrite, func(inst *crdt.Instance, op *crdt.Op) error {
		op.Value = value
		return nil
	})
}

// Map is a handle on one replicated map.
type Map struct {
	c      *Client
	target string
}

func (c *Client) Map(target string) *Map {
	return &Map{c: c, target: target}
}

// Get returns the live versions under key, empty when the key is
// absent.
func (m *Map) Get(ctx context.Context, key string) ([]crdt.Version, error) {
	if err := m.c.sync(ctx, m.target); err != nil {
		return nil, err
	}
	return m.c.mirror.Instance(m.target).MapGet(key)
}

// Keys returns the keys with at least one live version, sorted.
func (m *Map) Keys(ctx context.Context) ([]string, error) {
	if err := m.c.sync(ctx, m.target); err != nil {
		return nil, err
	}
	return m.c.mirror.Instance(m.target).MapKeys()
}

// Put sets key to value, superseding the versions the client has
// observed under it.
func (m *Map) Put(ctx context.Context, key string, value []byte) (crdt.Dot, error) {
	return m.c.mutate(ctx, m.target, crdt.KindMapPut, func(inst *crdt.Instance, op *crdt.Op) error {
		op.Key = key
		op.Value = value
		return nil
	})
}

// Remove deletes the versions the client has observed under key. A
// concurrent put keeps the key alive.
func (m *Map) Remove(ctx context.Context, key string) error {
	_, err := m.c.mutate(ctx, m.target, crdt.KindMapRemove, func(inst *crdt.Instance, op *crdt.Op) error {
		op.Key = key
		return nil
	})
	return err
}
