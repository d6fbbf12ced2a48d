package authz

import "errors"

// Domain errors for directory lookups.
var (
	// ErrNotFound is returned by directories when no entity exists for
	// the given identifier. The engine treats it as a clean negative
	// answer; any other directory error is an evaluation fault.
	ErrNotFound = errors.New("authz.not_found")
)
