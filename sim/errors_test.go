package sim

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := Errorf(KindValidation, "configure", "bad fitness %d", 3)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, "configure: validation error: bad fitness 3", err.Error())

	wrapped := fmt.Errorf("trial 7: %w", err)
	assert.True(t, errors.Is(wrapped, ErrValidation))

	var e *Error
	assert.True(t, errors.As(wrapped, &e))
	assert.Equal(t, KindValidation, e.Kind)
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(KindData, "load", nil))

	err := WrapError(KindData, "load", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, ErrData))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "load: data error: unexpected EOF", err.Error())
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "precondition error", KindPrecondition.String())
	assert.Equal(t, "index error", KindIndex.String())
	assert.Equal(t, "error kind 99", ErrorKind(99).String())
}
