// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/buildgraph/buildgraph/internal/driver"
	"github.com/buildgraph/buildgraph/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor picks the process exit code for err. Usage mistakes exit 2 and
// an executor failure passes the executor's own status through.
func exitCodeFor(err error) types.ExitCode {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code.Normalize()
	}
	var execErr *driver.ExecutorError
	if errors.As(err, &execErr) && !execErr.Code.IsSuccess() {
		return execErr.Code.Normalize()
	}
	if errors.Is(err, driver.ErrUnknownAction) {
		return types.ExitUsage
	}
	return types.ExitFailure
}
