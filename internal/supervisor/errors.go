package supervisor

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a launch failure caused by a missing service target.
var ErrNotFound = errors.New("service target not found")

// LaunchError reports that one service could not be started. It never
// aborts sibling launches; callers log it and proceed.
type LaunchError struct {
	Name string
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
