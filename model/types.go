// Package model defines the identity types and stable error codes
// shared across the client, node and CLI surfaces.
//
// Immutable blobs are addressed by the CID of their root chunk.
// Mutable data (sequences, registers, maps) is addressed by a DataID:
// the owner account, a type tag and a user-chosen name. The address
// is the CID of the DataID's canonical bytes, so every replica and
// client derives the same address without coordination.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/cidutil"
)

// Tag names the mutable data type living at an address.
type Tag string

const (
	TagSequence Tag = "sequence"
	TagRegister Tag = "register"
	TagMap      Tag = "map"
)

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	switch t {
	case TagSequence, TagRegister, TagMap:
		return true
	}
	return false
}

// DataID names one piece of mutable data.
type DataID struct {
	Tag   Tag    `json:"tag"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// Canonical returns the bytes the address is derived from. Fields
// marshal in declaration order, so the encoding is stable.
func (d DataID) Canonical() ([]byte, error) {
	if !d.Tag.Valid() {
		return nil, fmt.Errorf("model: unknown tag %q", d.Tag)
	}
	if d.Owner == "" {
		return nil, fmt.Errorf("model: data id needs an owner")
	}
	if d.Name == "" {
		return nil, fmt.Errorf("model: data id needs a name")
	}
	return json.Marshal(d)
}

// Address returns the network address of the data.
func (d DataID) Address() (cid.Cid, error) {
	b, err := d.Canonical()
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.CIDv1RawSHA256CID(b)
}

func (d DataID) String() string {
	return string(d.Tag) + "/" + d.Owner + "/" + d.Name
}
