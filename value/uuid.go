package value

import (
	"github.com/google/uuid"

	"github.com/sqlbridge/sqlbridge/dberr"
)

// UUID wraps u as an Extension("Uuid", String(...)) value, the
// canonical representation every engine encoder switches on for the
// "Uuid" tag.
func UUID(u uuid.UUID) Value {
	return Ext("Uuid", String(u.String()))
}

// ParseUUID parses a canonical UUID string into the "Uuid" extension
// value, surfacing malformed input as TypeMismatch rather than a raw
// parse error.
func ParseUUID(s string) (Value, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Value{}, dberr.TypeMismatch("invalid UUID %q: %v", s, err)
	}
	return UUID(u), nil
}

// AsUUID extracts a uuid.UUID from an Extension("Uuid", ...) value.
func AsUUID(v Value) (uuid.UUID, error) {
	tag, inner, err := v.AsExtension()
	if err != nil {
		return uuid.UUID{}, err
	}
	if tag != "Uuid" {
		return uuid.UUID{}, dberr.TypeMismatch("expected Uuid extension, got %q", tag)
	}
	s, err := inner.AsString()
	if err != nil {
		return uuid.UUID{}, err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, dberr.TypeMismatch("invalid UUID %q: %v", s, err)
	}
	return u, nil
}
