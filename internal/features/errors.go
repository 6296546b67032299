package features

import "errors"

// ErrInvalidInput is returned for URLs that cannot be analyzed. No vector is produced.
var ErrInvalidInput = errors.New("invalid input url")
