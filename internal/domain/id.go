// Package domain contains entity without logic, just meta-data
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrBadID = errors.New("id must be a number or a string")

// ID identifies a room or a feed. The gateway accepts both numeric and
// string identifiers depending on how it was configured, so the concrete
// value is int64 | string | nil. The zero ID means "not bound yet".
//
// JSON numbers decode as float64 with encoding/json; UnmarshalJSON folds
// integral floats back to int64 so locally built IDs and wire-decoded IDs
// compare equal. Use Equal, not ==, when one side may come off the wire.
type ID struct {
	v any
}

// NumericID builds an ID from a gateway numeric identifier.
func NumericID(n int64) ID { return ID{v: n} }

// StringID builds an ID from a gateway string identifier.
func StringID(s string) ID { return ID{v: s} }

// IsZero reports whether the ID carries no value.
func (id ID) IsZero() bool { return id.v == nil }

// Num returns the numeric value and whether the ID is numeric.
func (id ID) Num() (int64, bool) {
	n, ok := id.v.(int64)
	return n, ok
}

// Str returns the string value and whether the ID is a string.
func (id ID) Str() (string, bool) {
	s, ok := id.v.(string)
	return s, ok
}

// Equal reports whether two IDs name the same room or feed.
func (id ID) Equal(other ID) bool {
	return !id.IsZero() && id.v == other.v
}

func (id ID) String() string {
	switch v := id.v.(type) {
	case nil:
		return ""
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.v)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		id.v = nil
	case string:
		id.v = v
	case float64:
		if v == float64(int64(v)) {
			id.v = int64(v)
		} else {
			return fmt.Errorf("%w: got non-integral number %v", ErrBadID, v)
		}
	default:
		return fmt.Errorf("%w: got %T", ErrBadID, raw)
	}
	return nil
}
