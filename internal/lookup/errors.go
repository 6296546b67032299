package lookup

import "errors"

var (
	// ErrLookupTimeout is returned when an external call exceeds its bound.
	ErrLookupTimeout = errors.New("external lookup timed out")

	// ErrNotApplicable is returned when a lookup has no meaning for the
	// target, such as WHOIS on an IP literal.
	ErrNotApplicable = errors.New("lookup not applicable")

	ErrFeedUnavailable = errors.New("reputation feed unavailable")
)
