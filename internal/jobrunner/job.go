package jobrunner

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
)

// shellPath is the shell used to interpret job command lines. Job lines may
// contain pipes, redirections and other shell operators, so they are handed
// to a shell rather than exec'd directly.
const shellPath = "/bin/sh"

// Job represents one command line from a job file, executed to completion as
// a child process using exec.Cmd. It provides management of the Job's
// lifecycle and access to its exit status once finished.
type Job struct {
	index    int
	cmdline  string
	state    AtomicJobState
	signaled atomic.Bool

	cmd          *exec.Cmd
	processState atomic.Pointer[os.ProcessState]

	done chan struct{}
}

// JobStatus represents the status of a Job, including its state, exit code,
// and whether the runner delivered a termination signal to it.
type JobStatus struct {
	State    JobState
	ExitCode int
	Signaled bool
}

// NewJob creates a new Job for the 1-indexed position index in the job file
// and the given command line. The child process writes to stdout and stderr
// directly; callers pass the runner's own streams so job output is inherited
// rather than collected.
func NewJob(
	index int,
	cmdline string,
	stdout io.Writer,
	stderr io.Writer,
) (*Job, error) {
	if strings.TrimSpace(cmdline) == "" {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(shellPath, "-c", cmdline)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	j := &Job{
		index:   index,
		cmdline: cmdline,
		cmd:     cmd,
		done:    make(chan struct{}),
	}

	j.state.Store(JobStateCreated)

	return j, nil
}

// Start launches the Job's command. Trying to start a Job that is not in
// JobStateCreated returns an InvalidStateError.
func (j *Job) Start() error {
	if !j.state.CompareAndSwap(JobStateCreated, JobStateStarting) {
		return NewInvalidStateError(j.state.Load(), JobStateStarting)
	}

	if err := j.cmd.Start(); err != nil {
		j.state.Store(JobStateFailed)

		return fmt.Errorf("failed to start process: %w", err)
	}

	j.state.Store(JobStateRunning)

	go func() {
		j.cmd.Wait()

		j.processState.Store(j.cmd.ProcessState)
		j.state.Store(JobStateExited)

		close(j.done)
	}()

	return nil
}

// Signal delivers sig to the Job's process. Trying to signal a Job that is
// not in JobStateRunning returns an InvalidStateError. Delivery to a process
// that exited between the state check and the syscall is reported by the
// underlying error, which callers doing best-effort shutdown may ignore.
func (j *Job) Signal(sig os.Signal) error {
	if j.state.Load() != JobStateRunning {
		return NewInvalidStateError(j.state.Load(), JobStateExited)
	}

	j.signaled.Store(true)

	return j.cmd.Process.Signal(sig)
}

// Index returns the 1-indexed position of the Job in its job file.
func (j *Job) Index() int {
	return j.index
}

// CommandLine returns the command line the Job executes.
func (j *Job) CommandLine() string {
	return j.cmdline
}

// PID returns the OS process ID of the launched command, or 0 if the Job has
// not been started.
func (j *Job) PID() int {
	if j.cmd.Process == nil {
		return 0
	}

	return j.cmd.Process.Pid
}

// State returns the state of the Job.
func (j *Job) State() JobState {
	return j.state.Load()
}

// Signaled returns whether the runner delivered a termination signal to the
// Job.
func (j *Job) Signaled() bool {
	return j.signaled.Load()
}

// ExitCode returns the exit code of the process or -1 if the process hasn't
// exited or was killed by a signal.
func (j *Job) ExitCode() int {
	ps := j.processState.Load()
	if ps == nil {
		return -1
	}

	return ps.ExitCode()
}

// Done returns a channel that is closed when the Job has completed and the
// process has exited.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Status returns the status of the Job.
func (j *Job) Status() *JobStatus {
	return &JobStatus{
		State:    j.state.Load(),
		ExitCode: j.ExitCode(),
		Signaled: j.signaled.Load(),
	}
}
