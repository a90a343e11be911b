package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageFormat(t *testing.T) {
	e := New(NotFound, `C:\Windows\System32\config\SAM`, nil)
	assert.Equal(t, `NotFound: C:\Windows\System32\config\SAM`, e.Error())
}

func TestLinkRecursionMessageFormat(t *testing.T) {
	e := NewLinkRecursion(`C:\links\a`, 10)
	assert.Equal(t, `LinkRecursion: C:\links\a: depth 10`, e.Error())
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	cause := errors.New("disk offline")
	wrapped := Wrap(cause, DeviceIo, `C:\vol`, "reading sectors")

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, DeviceIo, kind)
}

func TestKindOfOnPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("not one of ours"))
	assert.False(t, ok)
}

func TestIsComparesKindOnly(t *testing.T) {
	a := New(AlreadyExists, "/x", nil)
	b := New(AlreadyExists, "/y", errors.New("different cause"))
	assert.True(t, a.Is(b))
}
