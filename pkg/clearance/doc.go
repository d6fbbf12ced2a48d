// Package clearance models security clearance levels and data
// classification labels, and the fixed mapping between them.
//
// Clearance levels form a total order. A principal holding a level can
// access anything requiring that level or below:
//
//	PUBLIC < STANDARD < ELEVATED < CONFIDENTIAL < SECRET < TOP_SECRET
//
// Data classifications label resource sensitivity and map to the minimum
// clearance required to touch a resource carrying that label:
//
//	PUBLIC       -> PUBLIC
//	INTERNAL     -> STANDARD
//	CONFIDENTIAL -> CONFIDENTIAL
//	RESTRICTED   -> SECRET
//	TOP_SECRET   -> TOP_SECRET
//
// Basic usage:
//
//	level, err := clearance.ParseLevel("SECRET")
//	if level.CanAccess(clearance.LevelConfidential) {
//	    // allowed
//	}
package clearance
