package keys

import "errors"

var (
	ErrBadKey       = errors.New("keys: malformed or unsupported key")
	ErrBadSignature = errors.New("keys: signature verification failed")
)
