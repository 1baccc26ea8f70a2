package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

type other struct {
	Name string `json:"name"`
}

func TestRegistry_EncodeDecode(t *testing.T) {
	r := NewRegistry()
	r.Register("sample", sample{})

	name, payload, err := r.Encode(sample{ID: "a", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, "sample", name)

	v, err := r.Decode(name, payload)
	require.NoError(t, err)
	assert.Equal(t, sample{ID: "a", Count: 2}, v)
}

func TestRegistry_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.Encode(other{Name: "x"})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = r.Decode("missing", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistry_ConflictingRegistrationPanics(t *testing.T) {
	r := NewRegistry()
	r.Register("sample", sample{})
	r.Register("sample", sample{})

	assert.Panics(t, func() { r.Register("sample", other{}) })
	assert.Panics(t, func() { r.Register("ptr", &sample{}) })
}

func TestRegistry_WrapUnwrap(t *testing.T) {
	r := NewRegistry()
	r.Register("other", other{})

	env, err := r.Wrap(other{Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, "other", env.Type)

	v, err := r.Unwrap(env)
	require.NoError(t, err)
	assert.Equal(t, other{Name: "n"}, v)
}
