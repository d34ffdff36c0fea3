package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	errLocked := NewError("LOCKED", "locked")

	assert.True(t, HasCode(errLocked, "LOCKED"))
	assert.True(t, HasCode(errors.Wrap(errLocked, "saving draft"), "LOCKED"))
	assert.False(t, HasCode(errLocked, "INVALID"))
	assert.False(t, HasCode(errors.New("boom"), "LOCKED"))

	e, ok := AsError(errors.Wrap(errLocked, "x"))
	assert.True(t, ok)
	assert.Equal(t, "locked", e.Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("bye"), "handler")))
	assert.False(t, IsShutdown(errors.New("bye")))
}
