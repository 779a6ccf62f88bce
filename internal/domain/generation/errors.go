package generation

import "errors"

// ErrMalformedResponse indicates the backend answered but the expected
// content field was absent or empty.
var ErrMalformedResponse = errors.New("malformed generation response")
