package token

import "errors"

// ErrInvalidToken is the single externally observable failure for every
// bad-credential cause: signature or structural invalidity, wrong type
// tag, expiry, revocation, and unknown or already-rotated refresh tokens.
var ErrInvalidToken = errors.New("invalid token")
