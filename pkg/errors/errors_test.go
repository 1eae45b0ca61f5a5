// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test structured error creation, wrapping, and code predicates

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/errors"
)

func TestNewAndError(t *testing.T) {
	err := errors.New(errors.ErrParse, "bad version")
	assert.Equal(t, "[PARSE] bad version", err.Error())
	assert.Equal(t, errors.ErrParse, errors.GetErrorCode(err))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.Wrapf(cause, errors.ErrIoFailure, "writing %s", "/tmp/x")

	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, errors.IsIoFailure(err))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrIoFailure, "ignored"))
	assert.Nil(t, errors.Wrapf(nil, errors.ErrIoFailure, "ignored %d", 1))
}

func TestCodeSurvivesFurtherWrapping(t *testing.T) {
	inner := errors.New(errors.ErrUnsatisfiable, "no solution")
	outer := fmt.Errorf("solve failed: %w", inner)

	assert.True(t, errors.IsUnsatisfiable(outer))
	assert.Equal(t, errors.ErrUnsatisfiable, errors.GetErrorCode(outer))
}

func TestTimedOutIsNotUnsatisfiable(t *testing.T) {
	err := errors.New(errors.ErrTimedOut, "budget exceeded")
	assert.True(t, errors.IsTimedOut(err))
	assert.False(t, errors.IsUnsatisfiable(err))
}

func TestDetails(t *testing.T) {
	err := errors.New(errors.ErrParse, "bad input").
		WithDetail("input", "1-2_3").
		WithDetails(map[string]interface{}{"position": 3})

	details := errors.GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "1-2_3", details["input"])
	assert.Equal(t, 3, details["position"])
}

func TestIsMatchesByCode(t *testing.T) {
	a := errors.New(errors.ErrClobberConflict, "first")
	b := errors.New(errors.ErrClobberConflict, "second")
	c := errors.New(errors.ErrCancelled, "other")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestGetErrorCodeUnknownForPlainErrors(t *testing.T) {
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}
