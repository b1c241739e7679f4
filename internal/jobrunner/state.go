package jobrunner

import "sync/atomic"

type JobState int

const (
	// JobStateUnknown indicates the state of the job is unknown. It's used as
	// the zero value for functions that return a (possibly absent) JobState.
	JobStateUnknown JobState = iota

	// JobStateCreated indicates the job has been configured successfully and
	// can be launched.
	JobStateCreated

	// JobStateStarting indicates the job is in the process of launching, e.g.
	// Start() called but the underlying process has not yet been forked.
	JobStateStarting

	// JobStateRunning indicates the command is running. The job can be
	// signalled.
	JobStateRunning

	// JobStateExited indicates the command has exited, with any status.
	JobStateExited

	// JobStateFailed indicates the job could not be launched at all, e.g. the
	// shell binary is missing or the process table is exhausted. Distinct from
	// a command that launched and then exited non-zero.
	JobStateFailed
)

// NOTE: This slice needs to be kept in sync with any changes to the JobState
// values. Ideally, we'd only ever be 'adding' more states to maintain a
// consistent API.
var jobStates = []string{
	"Unknown",
	"Created",
	"Starting",
	"Running",
	"Exited",
	"Failed",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}

// AtomicJobState is a wrapper around an atomic.Int32 to provide atomic
// operations on a JobState.
//  1. Simplifies validating state transitions with CompareAndSwap.
//  2. Removes the need for a mutex on a Job, since state is the only field
//     written after launch from more than one goroutine.
type AtomicJobState struct {
	v atomic.Int32
}

// Load atomically loads the JobState value.
func (a *AtomicJobState) Load() JobState {
	return JobState(a.v.Load())
}

// Store atomically stores the JobState value.
func (a *AtomicJobState) Store(s JobState) {
	a.v.Store(int32(s))
}

// CompareAndSwap performs an atomic compare-and-swap operation with an old and
// new JobState.
func (a *AtomicJobState) CompareAndSwap(o, n JobState) bool {
	return a.v.CompareAndSwap(int32(o), int32(n))
}
