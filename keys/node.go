package keys

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

const nodePrefix = "dilithium3:"

// NodeKey is a storage node's signing identity.
type NodeKey struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
	id   string
}

// GenerateNodeKey returns a fresh Dilithium3 keypair read from rand.
func GenerateNodeKey(rand io.Reader) (*NodeKey, error) {
	pub, priv, err := mode3.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	return &NodeKey{
		pub:  pub,
		priv: priv,
		id:   nodePrefix + base64.StdEncoding.EncodeToString(pub.Bytes()),
	}, nil
}

// DeriveNodeKey derives the keypair for a named node from a root
// seed. The same seed and name always yield the same key, so a node
// restarted from config keeps its identity without persisting the
// private key.
func DeriveNodeKey(rootSeed []byte, name string) (*NodeKey, error) {
	if len(rootSeed) == 0 {
		return nil, fmt.Errorf("%w: empty root seed", ErrBadKey)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty node name", ErrBadKey)
	}
	shake := sha3.NewShake256()
	_, _ = shake.Write(rootSeed)
	_, _ = shake.Write([]byte{0})
	_, _ = shake.Write([]byte("weft-node-key-v1"))
	_, _ = shake.Write([]byte{0})
	_, _ = shake.Write([]byte(name))
	return GenerateNodeKey(shake)
}

// ID returns the node's address string.
func (k *NodeKey) ID() string { return k.id }

// Sign returns a base64 Dilithium3 signature over sha3-256(message).
func (k *NodeKey) Sign(message []byte) string {
	digest := sha3.Sum256(message)
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(k.priv, digest[:], sig)
	return base64.StdEncoding.EncodeToString(sig)
}

// VerifyNodeSig checks a base64 signature over sha3-256(message)
// against the node address it claims to come from.
func VerifyNodeSig(id string, message []byte, sigB64 string) error {
	rest, ok := strings.CutPrefix(id, nodePrefix)
	if !ok {
		return fmt.Errorf("%w: node id must start with %q", ErrBadKey, nodePrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	var pub mode3.PublicKey
	if err := pub.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	digest := sha3.Sum256(message)
	if !mode3.Verify(&pub, digest[:], sig) {
		return ErrBadSignature
	}
	return nil
}
