package history

import "errors"

// ErrInvalidEpoch is returned for malformed epoch ranges.
var ErrInvalidEpoch = errors.New("invalid epoch")
