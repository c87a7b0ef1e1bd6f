package crdt

import (
	"sort"
	"sync"
)

// Replica holds every data instance a node (or client mirror)
// carries, keyed by target address.
type Replica struct {
	mu   sync.Mutex
	data map[string]*Instance
}

func NewReplica() *Replica {
	return &Replica{data: make(map[string]*Instance)}
}

// Instance returns the state at target, creating it on first use.
func (r *Replica) Instance(target string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.data[target]
	if !ok {
		in = newInstance()
		r.data[target] = in
	}
	return in
}

// Lookup returns the state at target without creating it.
func (r *Replica) Lookup(target string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.data[target]
	return in, ok
}

// Apply verifies the op's signature and integrates it into the
// instance its target names.
func (r *Replica) Apply(sop SignedOp) (ApplyResult, error) {
	if err := sop.Op.Validate(); err != nil {
		return ApplyResult{}, err
	}
	if err := sop.Verify(); err != nil {
		return ApplyResult{}, err
	}
	return r.Instance(sop.Op.Target).Apply(sop)
}

// Ops returns the target's accepted ops not covered by since.
func (r *Replica) Ops(target string, since VClock) []SignedOp {
	in, ok := r.Lookup(target)
	if !ok {
		return nil
	}
	return in.OpsSince(since)
}

// Clock returns the target's applied-op clock, empty when the target
// is unknown.
func (r *Replica) Clock(target string) VClock {
	in, ok := r.Lookup(target)
	if !ok {
		return VClock{}
	}
	return in.Clock()
}

// Targets lists known addresses in sorted order.
func (r *Replica) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.data))
	for t := range r.data {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
