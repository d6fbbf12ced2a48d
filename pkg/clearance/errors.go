package clearance

import "errors"

// Domain errors for clearance parsing.
var (
	// ErrUnknownLevel is returned when a string does not name a clearance level.
	ErrUnknownLevel = errors.New("clearance.unknown_level")

	// ErrUnknownClassification is returned when a string does not name a data classification.
	ErrUnknownClassification = errors.New("clearance.unknown_classification")
)
