package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDWireRoundTrip(t *testing.T) {
	req := require.New(t)

	var id ID
	req.NoError(json.Unmarshal([]byte(`1234`), &id))
	n, ok := id.Num()
	req.True(ok)
	req.Equal(int64(1234), n)
	out, err := json.Marshal(id)
	req.NoError(err)
	req.JSONEq(`1234`, string(out))

	req.NoError(json.Unmarshal([]byte(`"R1"`), &id))
	s, ok := id.Str()
	req.True(ok)
	req.Equal("R1", s)
	out, err = json.Marshal(id)
	req.NoError(err)
	req.JSONEq(`"R1"`, string(out))
}

func TestIDEqualAcrossDecode(t *testing.T) {
	req := require.New(t)

	var wire ID
	req.NoError(json.Unmarshal([]byte(`42`), &wire))
	req.True(wire.Equal(NumericID(42)))
	req.True(NumericID(42).Equal(wire))
	req.False(wire.Equal(StringID("42")))
}

func TestIDZero(t *testing.T) {
	req := require.New(t)

	var id ID
	req.True(id.IsZero())
	// A zero ID never equals anything, itself included.
	req.False(id.Equal(ID{}))
	req.False(NumericID(0).IsZero())
	req.Equal("", id.String())
}

func TestIDRejectsBadValues(t *testing.T) {
	req := require.New(t)

	var id ID
	req.ErrorIs(json.Unmarshal([]byte(`1.5`), &id), ErrBadID)
	req.ErrorIs(json.Unmarshal([]byte(`{"x":1}`), &id), ErrBadID)
	req.ErrorIs(json.Unmarshal([]byte(`[1]`), &id), ErrBadID)
}

func TestIDNullDecodesAsZero(t *testing.T) {
	req := require.New(t)

	var id ID
	req.NoError(json.Unmarshal([]byte(`null`), &id))
	req.True(id.IsZero())
	out, err := json.Marshal(id)
	req.NoError(err)
	req.Equal("null", string(out))
}
