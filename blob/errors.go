package blob

import "errors"

var (
	// ErrCorrupt reports a stored blob whose descriptor cannot be
	// decoded or does not describe its own content consistently.
	ErrCorrupt = errors.New("blob: corrupt blob")

	// ErrSealed reports a plain read of a sealed blob.
	ErrSealed = errors.New("blob: blob is sealed")

	// ErrNotSealed reports a keyed read of a plain blob.
	ErrNotSealed = errors.New("blob: blob is not sealed")

	// ErrBadSeal reports a sealed blob that does not open: wrong key
	// or tampered ciphertext.
	ErrBadSeal = errors.New("blob: seal does not open")
)
