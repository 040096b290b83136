package main

import (
	goerrors "errors"
	"testing"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"config load", errors.New(errors.ErrConfigLoad, "no config"), 2},
		{"config parse", errors.New(errors.ErrConfigParse, "bad toml"), 2},
		{"validation", errors.New(errors.ErrValidation, "relative path"), 2},
		{"target exists", errors.New(errors.ErrTargetExists, "occupied"), 2},
		{"permission", errors.New(errors.ErrPermission, "no cap"), 3},
		{"io", errors.New(errors.ErrIO, "disk"), 3},
		{"state invalid", errors.New(errors.ErrStateInvalid, "corrupt"), 3},
		{"not found", errors.New(errors.ErrNotFound, "gone"), 4},
		{"active protected", errors.New(errors.ErrActiveProtected, "active"), 5},
		{"already active", errors.New(errors.ErrAlreadyActive, "active"), 5},
		{"lock timeout", errors.New(errors.ErrLockTimeout, "busy"), 6},
		{"wrapped code survives", errors.Wrap(goerrors.New("eacces"), errors.ErrPermission, "mount"), 3},
		{"plain error", goerrors.New("something else"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
