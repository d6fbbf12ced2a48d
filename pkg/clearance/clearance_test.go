package clearance_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/clearance"
)

func TestLevel_CanAccess(t *testing.T) {
	tests := []struct {
		name     string
		held     clearance.Level
		required clearance.Level
		want     bool
	}{
		{
			name:     "top secret satisfies public",
			held:     clearance.LevelTopSecret,
			required: clearance.LevelPublic,
			want:     true,
		},
		{
			name:     "standard fails secret",
			held:     clearance.LevelStandard,
			required: clearance.LevelSecret,
			want:     false,
		},
		{
			name:     "equal levels pass",
			held:     clearance.LevelConfidential,
			required: clearance.LevelConfidential,
			want:     true,
		},
		{
			name:     "elevated sits between standard and confidential",
			held:     clearance.LevelElevated,
			required: clearance.LevelConfidential,
			want:     false,
		},
		{
			name:     "public fails standard",
			held:     clearance.LevelPublic,
			required: clearance.LevelStandard,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.held.CanAccess(tt.required))
		})
	}
}

func TestLevel_Ordering(t *testing.T) {
	ordered := []clearance.Level{
		clearance.LevelPublic,
		clearance.LevelStandard,
		clearance.LevelElevated,
		clearance.LevelConfidential,
		clearance.LevelSecret,
		clearance.LevelTopSecret,
	}

	for i := 1; i < len(ordered); i++ {
		assert.True(t, ordered[i].CanAccess(ordered[i-1]),
			"%s should satisfy %s", ordered[i], ordered[i-1])
		assert.False(t, ordered[i-1].CanAccess(ordered[i]),
			"%s should not satisfy %s", ordered[i-1], ordered[i])
	}
}

func TestClassification_RequiredLevel(t *testing.T) {
	tests := []struct {
		class clearance.Classification
		want  clearance.Level
	}{
		{clearance.ClassPublic, clearance.LevelPublic},
		{clearance.ClassInternal, clearance.LevelStandard},
		{clearance.ClassConfidential, clearance.LevelConfidential},
		{clearance.ClassRestricted, clearance.LevelSecret},
		{clearance.ClassTopSecret, clearance.LevelTopSecret},
	}

	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.class.RequiredLevel())
		})
	}
}

func TestClassification_RequiredLevel_Unknown(t *testing.T) {
	// Malformed classifications must not map to the lowest level.
	unknown := clearance.Classification(99)
	assert.Equal(t, clearance.LevelStandard, unknown.RequiredLevel())
}

func TestParseLevel(t *testing.T) {
	level, err := clearance.ParseLevel("SECRET")
	require.NoError(t, err)
	assert.Equal(t, clearance.LevelSecret, level)

	_, err = clearance.ParseLevel("ULTRA")
	require.Error(t, err)
	assert.True(t, errors.Is(err, clearance.ErrUnknownLevel))
}

func TestParseClassification(t *testing.T) {
	class, err := clearance.ParseClassification("RESTRICTED")
	require.NoError(t, err)
	assert.Equal(t, clearance.ClassRestricted, class)

	_, err = clearance.ParseClassification("unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, clearance.ErrUnknownClassification))
}

func TestLevel_TextRoundTrip(t *testing.T) {
	var level clearance.Level
	require.NoError(t, level.UnmarshalText([]byte("TOP_SECRET")))
	assert.Equal(t, clearance.LevelTopSecret, level)

	text, err := level.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "TOP_SECRET", string(text))
}
