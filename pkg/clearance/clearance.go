package clearance

import (
	"errors"
	"fmt"
)

// Level is a security clearance level held by a principal.
// The zero value is LevelPublic, the lowest level.
type Level int

// Clearance levels in ascending order of authority.
const (
	LevelPublic Level = iota
	LevelStandard
	LevelElevated
	LevelConfidential
	LevelSecret
	LevelTopSecret
)

var levelNames = map[Level]string{
	LevelPublic:       "PUBLIC",
	LevelStandard:     "STANDARD",
	LevelElevated:     "ELEVATED",
	LevelConfidential: "CONFIDENTIAL",
	LevelSecret:       "SECRET",
	LevelTopSecret:    "TOP_SECRET",
}

// String returns the stable wire form of the level (e.g. "TOP_SECRET").
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// CanAccess reports whether the level satisfies the required level.
func (l Level) CanAccess(required Level) bool {
	return l >= required
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts a wire-form level name into a Level.
func ParseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}
	return LevelPublic, errors.Join(ErrUnknownLevel, fmt.Errorf("unknown clearance level %q", s))
}

// Classification is a data sensitivity label carried by a resource.
type Classification int

// Data classifications in ascending order of sensitivity.
const (
	ClassPublic Classification = iota
	ClassInternal
	ClassConfidential
	ClassRestricted
	ClassTopSecret
)

var classificationNames = map[Classification]string{
	ClassPublic:       "PUBLIC",
	ClassInternal:     "INTERNAL",
	ClassConfidential: "CONFIDENTIAL",
	ClassRestricted:   "RESTRICTED",
	ClassTopSecret:    "TOP_SECRET",
}

// requiredLevels maps each classification to the minimum clearance
// needed to access a resource carrying it.
var requiredLevels = map[Classification]Level{
	ClassPublic:       LevelPublic,
	ClassInternal:     LevelStandard,
	ClassConfidential: LevelConfidential,
	ClassRestricted:   LevelSecret,
	ClassTopSecret:    LevelTopSecret,
}

// String returns the stable wire form of the classification.
func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CLASSIFICATION(%d)", int(c))
}

// RequiredLevel returns the minimum clearance level needed for a
// resource carrying this classification. Unknown classifications map
// to LevelStandard rather than LevelPublic so that malformed data can
// never widen access.
func (c Classification) RequiredLevel() Level {
	if level, ok := requiredLevels[c]; ok {
		return level
	}
	return LevelStandard
}

// MarshalText implements encoding.TextMarshaler.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClassification converts a wire-form classification name into a Classification.
func ParseClassification(s string) (Classification, error) {
	for class, name := range classificationNames {
		if name == s {
			return class, nil
		}
	}
	return ClassPublic, errors.Join(ErrUnknownClassification, fmt.Errorf("unknown data classification %q", s))
}
