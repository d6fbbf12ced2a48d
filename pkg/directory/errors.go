package directory

import "errors"

var (
	// ErrInvalidSnapshot marks a YAML policy snapshot that fails to
	// decode or violates basic shape requirements.
	ErrInvalidSnapshot = errors.New("directory.invalid_snapshot")

	// ErrUnknownReference marks a snapshot entry referring to a
	// permission or role that is not defined in the same snapshot.
	ErrUnknownReference = errors.New("directory.unknown_reference")

	// ErrQueryFailed wraps policy store query faults.
	ErrQueryFailed = errors.New("directory.query_failed")
)
