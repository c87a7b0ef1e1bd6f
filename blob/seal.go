package blob

import (
	"crypto/cipher"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/sha3"
)

// KeySize is the byte length of a blob sealing key.
const KeySize = chacha20poly1305.KeySize

// NewKey reads a fresh sealing key from r.
func NewKey(r io.Reader) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("blob: generate key: %w", err)
	}
	return key, nil
}

// seal boxes plain under key with XChaCha20-Poly1305. The nonce is
// derived from key and content, so sealing the same content under the
// same key yields the same bytes and the same chunk addresses.
func seal(plain, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := deriveNonce(key, plain)
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// open reverses seal. A wrong key or a tampered box fails with
// ErrBadSeal.
func open(box, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(box) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: box too short", ErrBadSeal)
	}
	nonce, sealed := box[:aead.NonceSize()], box[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSeal, err)
	}
	return plain, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrBadSeal, KeySize)
	}
	return chacha20poly1305.NewX(key)
}

func deriveNonce(key, plain []byte) []byte {
	shake := sha3.NewShake256()
	_, _ = shake.Write([]byte("weft-blob-nonce-v1"))
	_, _ = shake.Write([]byte{0})
	_, _ = shake.Write(key)
	_, _ = shake.Write([]byte{0})
	_, _ = shake.Write(plain)
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	_, _ = shake.Read(nonce)
	return nonce
}
