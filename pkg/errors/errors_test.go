package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      New(ErrNotFound, "generation 3 does not exist"),
			expected: "[NOT_FOUND] generation 3 does not exist",
		},
		{
			name:     "with wrapped error",
			err:      Wrap(fmt.Errorf("permission denied"), ErrIO, "cannot write state"),
			expected: "[IO] cannot write state: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIsCode(t *testing.T) {
	err := Newf(ErrTargetExists, "target %s already exists", "/etc/nixos")

	assert.True(t, IsCode(err, ErrTargetExists))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrTargetExists))
	assert.False(t, IsCode(nil, ErrTargetExists))
}

func TestIsCode_Wrapped(t *testing.T) {
	inner := New(ErrPermission, "bind mount needs CAP_SYS_ADMIN")
	outer := fmt.Errorf("creating entry 2: %w", inner)

	assert.True(t, IsCode(outer, ErrPermission))
	assert.Equal(t, ErrPermission, CodeOf(outer))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrLockTimeout, CodeOf(New(ErrLockTimeout, "busy")))
	assert.Equal(t, ErrUnknown, CodeOf(fmt.Errorf("plain")))
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrIO, "should be nil"))
	assert.Nil(t, Wrapf(nil, ErrIO, "should be %s", "nil"))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrConfigInvalid, "duplicate target").
		WithDetail("target", "/etc/machine-id").
		WithDetail("first_index", 0)

	assert.Equal(t, "/etc/machine-id", err.Details["target"])
	assert.Equal(t, 0, err.Details["first_index"])
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("ENOSPC")
	err := Wrap(inner, ErrIO, "cannot persist")

	assert.Equal(t, inner, err.Unwrap())
}
