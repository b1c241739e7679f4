package jobrunner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sync/semaphore"
)

// Runner launches the command lines of a job file as child processes while
// keeping at most its configured parallelism running at any instant. Jobs are
// launched in file order; no guarantee is made about completion order.
type Runner struct {
	parallelism int
	stdout      io.Writer
	stderr      io.Writer
	report      bool
}

// NewRunner creates a Runner with the given parallelism bound. Progress lines
// are written to stdout and launch failures to stderr; child processes write
// to both directly. A parallelism below 1 is an error, never 'unlimited'.
// When report is set, the Runner prints a line with each job's pid and exit
// status as it completes.
func NewRunner(
	parallelism int,
	stdout io.Writer,
	stderr io.Writer,
	report bool,
) (*Runner, error) {
	if parallelism < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1, got %d", parallelism)
	}

	return &Runner{
		parallelism: parallelism,
		stdout:      stdout,
		stderr:      stderr,
		report:      report,
	}, nil
}

// Run launches every command in jobs, in order, blocking whenever the number
// of running jobs has reached the parallelism bound, and returns once all
// launched jobs have exited.
//
// A job that exits non-zero, crashes, or cannot be launched at all does not
// abort the batch and does not affect the returned error, which covers only
// the Runner's own operation. Cancelling ctx stops launching new jobs,
// forwards SIGTERM to every running job, and still waits for them to exit
// before returning ctx's error.
func (r *Runner) Run(ctx context.Context, jobs []string) error {
	if len(jobs) == 0 {
		return ErrNoJobs
	}

	sem := semaphore.NewWeighted(int64(r.parallelism))
	running := newRunningSet()

	stop := context.AfterFunc(ctx, func() {
		running.signalAll(syscall.SIGTERM)
	})
	defer stop()

	var wg sync.WaitGroup

	n := len(jobs)

	for i, cmdline := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled. Stop launching; already-running jobs have been
			// signalled and are drained below.
			break
		}

		job, err := NewJob(i+1, cmdline, r.stdout, r.stderr)
		if err != nil {
			fmt.Fprintf(r.stderr, "job %d/%d: %v\n", i+1, n, err)
			sem.Release(1)

			continue
		}

		fmt.Fprintf(r.stdout, "job: %d/%d\n", i+1, n)
		fmt.Fprintf(r.stdout, "cmd: %s\n", cmdline)

		if err := job.Start(); err != nil {
			fmt.Fprintf(r.stderr, "job %d/%d: %v\n", i+1, n, err)
			sem.Release(1)

			continue
		}

		fmt.Fprintf(r.stdout, "pid: %d\n", job.PID())

		running.add(job)

		wg.Add(1)

		go func() {
			defer wg.Done()

			<-job.Done()

			running.remove(job)
			sem.Release(1)

			if r.report {
				fmt.Fprintf(
					r.stdout,
					"exit: pid %d status %d\n",
					job.PID(),
					job.ExitCode(),
				)
			}
		}()
	}

	wg.Wait()

	return ctx.Err()
}

// runningSet is the set of currently active Jobs: membership is added on
// launch and removed on completion. The launch goroutine and the per-job
// waiters both touch it, so access is mutex-guarded.
type runningSet struct {
	jobs map[*Job]struct{}

	mu sync.Mutex
}

func newRunningSet() *runningSet {
	return &runningSet{
		jobs: make(map[*Job]struct{}),
	}
}

func (s *runningSet) add(j *Job) {
	s.mu.Lock()
	s.jobs[j] = struct{}{}
	s.mu.Unlock()
}

func (s *runningSet) remove(j *Job) {
	s.mu.Lock()
	delete(s.jobs, j)
	s.mu.Unlock()
}

// signalAll makes a 'best effort' attempt to deliver sig to every Job in the
// set. A Job that exited between snapshot and delivery returns an error from
// Signal, which is ignored here.
func (s *runningSet) signalAll(sig os.Signal) {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	for _, job := range jobs {
		job.Signal(sig)
	}
}
