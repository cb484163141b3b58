package valueobjects

import (
	"github.com/google/uuid"

	pkgerrors "cascade-engine/pkg/errors"
)

// ObjectID uniquely identifies a scene object
type ObjectID struct {
	value string
}

// NewObjectID generates a new unique object ID
func NewObjectID() ObjectID {
	return ObjectID{value: uuid.New().String()}
}

// ParseObjectID validates and wraps an existing ID string
func ParseObjectID(s string) (ObjectID, error) {
	if s == "" {
		return ObjectID{}, pkgerrors.NewValidation("object id cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return ObjectID{}, pkgerrors.NewValidation("invalid object id: " + s)
	}
	return ObjectID{value: s}, nil
}

// String returns the string representation
func (id ObjectID) String() string {
	return id.value
}

// IsZero reports whether the ID is unset
func (id ObjectID) IsZero() bool {
	return id.value == ""
}

// Equals compares two object IDs
func (id ObjectID) Equals(other ObjectID) bool {
	return id.value == other.value
}

// MarshalText implements encoding.TextMarshaler
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ObjectID) UnmarshalText(text []byte) error {
	id.value = string(text)
	return nil
}
