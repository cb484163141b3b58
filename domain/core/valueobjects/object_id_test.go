package valueobjects

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "cascade-engine/pkg/errors"
)

func TestNewObjectID_IsValidUUID(t *testing.T) {
	id := NewObjectID()

	_, err := uuid.Parse(id.String())
	assert.NoError(t, err)
	assert.False(t, id.IsZero())
}

func TestParseObjectID_RoundTrips(t *testing.T) {
	original := NewObjectID()

	parsed, err := ParseObjectID(original.String())

	require.NoError(t, err)
	assert.True(t, parsed.Equals(original))
}

func TestParseObjectID_RejectsNonUUID(t *testing.T) {
	for _, raw := range []string{"not-a-uuid", "12345", "box-1"} {
		_, err := ParseObjectID(raw)
		assert.True(t, pkgerrors.IsValidation(err), raw)
	}
}

func TestParseObjectID_RejectsEmpty(t *testing.T) {
	_, err := ParseObjectID("")

	assert.True(t, pkgerrors.IsValidation(err))
}
