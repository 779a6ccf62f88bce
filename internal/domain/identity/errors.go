package identity

import "errors"

// ErrUnauthenticated indicates an invalid or expired identity token.
var ErrUnauthenticated = errors.New("unauthenticated")
