package errorx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	e := New(ErrEventIDMalformed)
	assert.Equal(t, "code=1201 msg=eventID malformed", e.Error())

	e = New(ErrEventIDMalformed, WithMessage("bad uuid"), WithCause(errors.New("invalid length")))
	assert.Equal(t, "code=1201 msg=bad uuid cause=invalid length", e.Error())

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrTracerInit))

	cause := errors.New("dial tcp: refused")
	e := Wrap(cause, ErrExporterInit, WithService(ServiceCollector))
	require.NotNil(t, e)
	assert.Equal(t, ErrExporterInit, e.Code)
	assert.Equal(t, ServiceCollector, e.Service)
	assert.ErrorIs(t, e, cause)

	// 已经是 *Error：保留原 code，只追加 option
	again := Wrap(fmt.Errorf("outer: %w", e), ErrTracerInit, WithField("service", "greeter"))
	assert.Same(t, e, again)
	assert.Equal(t, ErrExporterInit, again.Code)
	assert.Equal(t, "greeter", again.Fields["service"])
}

func TestHasCodeAndIs(t *testing.T) {
	err := fmt.Errorf("request: %w", NewBiz(ErrEventIDMissing))

	assert.True(t, HasCode(err, ErrEventIDMissing))
	assert.False(t, HasCode(err, ErrEventIDMalformed))
	assert.True(t, errors.Is(err, New(ErrEventIDMissing)))
	assert.False(t, errors.Is(err, New(ErrTracerInit)))
	assert.True(t, IsBiz(err))
	assert.False(t, IsSys(err))
	assert.Equal(t, ServiceDefault, ServiceOf(err))
	assert.Equal(t, ServiceDefault, ServiceOf(errors.New("plain")))
}
