package analyses

import "errors"

// ErrInvalidInput indicates the submission carried no usable idea fields.
var ErrInvalidInput = errors.New("missing input")

// ErrNotFound indicates an unknown record key.
var ErrNotFound = errors.New("analysis not found")

// ErrStoreUnavailable indicates the record store could not be reached.
var ErrStoreUnavailable = errors.New("record store unavailable")

// ErrGenerationFailed indicates the generation backend failed; the record
// itself survives in "failed" state.
var ErrGenerationFailed = errors.New("generation failed")
