package nsmerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	e := New("decodePing", LayerCodec, CodeLength)
	assert.Equal(t, "nsm: codec[LENGTH]: decodePing", e.Error())

	wrapped := Wrap("Exchange", LayerTransport, CodeTimeout, errors.New("deadline exceeded"))
	assert.Contains(t, wrapped.Error(), "deadline exceeded")
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := Wrap("Exchange", LayerTransport, CodeTimeout, errors.New("boom"))
	assert.True(t, errors.Is(err, Timeout))
	assert.False(t, errors.Is(err, Unreachable))
}

func TestIsHelper(t *testing.T) {
	err := New("decodeAggregate", LayerCodec, CodeData)
	assert.True(t, Is(err, CodeData))
	assert.False(t, Is(err, CodeLength))
	assert.False(t, Is(errors.New("plain"), CodeData))
}

func TestCodeOf(t *testing.T) {
	err := New("allocate", LayerAsyncOp, CodeUnavailable)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("socket closed")
	err := Wrap("Send", LayerTransport, CodeWriteFail, inner)
	assert.Same(t, inner, errors.Unwrap(err))
}
