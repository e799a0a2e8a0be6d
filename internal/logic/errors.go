package logic

import "fmt"

// DependencyError reports an external collaborator that failed to come up at
// startup. It is fatal for the session: the controller enters StateError.
type DependencyError struct {
	Dependency string // e.g. "clock", "datalog"
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
