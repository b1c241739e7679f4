package jobrunner

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCommand = errors.New("command cannot be empty")
	ErrNoJobs       = errors.New("job file contains no jobs")
)

// InvalidStateError is returned when attempting an invalid Job state
// transition.
type InvalidStateError struct {
	from JobState
	to   JobState
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot go from %s to %s", e.from, e.to)
}

func NewInvalidStateError(from, to JobState) InvalidStateError {
	return InvalidStateError{from, to}
}
