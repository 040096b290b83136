package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/genlink/pkg/errors"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error classes to distinct exit codes so callers can
// branch on failure class.
func exitCode(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrConfigLoad, errors.ErrConfigParse, errors.ErrConfigInvalid,
		errors.ErrValidation, errors.ErrTargetExists:
		return 2
	case errors.ErrPermission, errors.ErrIO, errors.ErrStateInvalid:
		return 3
	case errors.ErrNotFound:
		return 4
	case errors.ErrActiveProtected, errors.ErrAlreadyActive:
		return 5
	case errors.ErrLockTimeout:
		return 6
	default:
		return 1
	}
}
