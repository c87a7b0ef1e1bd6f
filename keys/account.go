// Package keys holds the two key schemes the network runs on.
//
// Accounts are Ed25519 keypairs held by clients. An account's public
// key string ("ed25519:" + base64) is its address: ops and transfers
// name their author by it, and anyone can verify the author's
// signature from the string alone.
//
// Nodes carry Dilithium3 keypairs ("dilithium3:" + base64). A node
// countersigns the transfers it accepts; a quorum of node signatures
// forms a debit proof.
package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const accountPrefix = "ed25519:"

// Account is a client signing identity.
type Account struct {
	priv ed25519.PrivateKey
	id   string
}

// GenerateAccount returns a fresh account keypair read from rand.
func GenerateAccount(rand io.Reader) (*Account, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	return &Account{priv: priv, id: accountPrefix + base64.StdEncoding.EncodeToString(pub)}, nil
}

// AccountFromSeed rebuilds the account for a stored 32-byte seed.
func AccountFromSeed(seed []byte) (*Account, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrBadKey, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Account{priv: priv, id: accountPrefix + base64.StdEncoding.EncodeToString(pub)}, nil
}

// ID returns the account's address string.
func (a *Account) ID() string { return a.id }

// Seed returns a copy of the account's seed for persistence.
func (a *Account) Seed() []byte {
	return append([]byte(nil), a.priv.Seed()...)
}

// Sign returns a base64 Ed25519 signature over sha256(message).
func (a *Account) Sign(message []byte) string {
	digest := sha256.Sum256(message)
	return base64.StdEncoding.EncodeToString(ed25519.Sign(a.priv, digest[:]))
}

// AccountID encodes an Ed25519 public key as an account address.
func AccountID(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: ed25519 public key must be %d bytes, got %d", ErrBadKey, ed25519.PublicKeySize, l)
	}
	return accountPrefix + base64.StdEncoding.EncodeToString(pub), nil
}

// ParseAccountID decodes an account address back to its public key.
func ParseAccountID(id string) (ed25519.PublicKey, error) {
	rest, ok := strings.CutPrefix(id, accountPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: account id must start with %q", ErrBadKey, accountPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes, got %d", ErrBadKey, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// VerifyAccountSig checks a base64 signature over sha256(message)
// against the account address it claims to come from.
func VerifyAccountSig(id string, message []byte, sigB64 string) error {
	pub, err := ParseAccountID(id)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	digest := sha256.Sum256(message)
	if !ed25519.Verify(pub, digest[:], sig) {
		return ErrBadSignature
	}
	return nil
}
