package jobrunner_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neurobatch/neuropipe/internal/jobrunner"
)

// syncBuffer guards a bytes.Buffer so the runner's progress lines and the
// child processes' own output can be written concurrently.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newTestRunner(t *testing.T, parallelism int, report bool) (*jobrunner.Runner, *syncBuffer) {
	t.Helper()

	out := &syncBuffer{}

	r, err := jobrunner.NewRunner(parallelism, out, out, report)
	require.NoError(t, err)

	return r, out
}

// maxOverlap computes the highest number of simultaneously running jobs from
// a marker file to which each job appended "S" on start and "E" on exit.
func maxOverlap(t *testing.T, markerFile string) int {
	t.Helper()

	data, err := os.ReadFile(markerFile)
	require.NoError(t, err)

	var current, max int

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		switch line {
		case "S":
			current++

			if current > max {
				max = current
			}
		case "E":
			current--
		default:
			t.Fatalf("unexpected marker line %q", line)
		}
	}

	return max
}

func TestRunnerRejectsInvalidParallelism(t *testing.T) {
	for _, p := range []int{0, -1} {
		_, err := jobrunner.NewRunner(p, os.Stdout, os.Stderr, false)
		require.Error(t, err, "parallelism %d", p)
	}
}

func TestRunnerRejectsEmptyJobSet(t *testing.T) {
	r, _ := newTestRunner(t, 1, false)

	err := r.Run(context.Background(), nil)
	require.ErrorIs(t, err, jobrunner.ErrNoJobs)
}

func TestRunnerLaunchesEveryJobExactlyOnce(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "launched")

	const n = 8

	jobs := make([]string, n)
	for i := range jobs {
		jobs[i] = fmt.Sprintf("echo %d >> %s", i+1, outFile)
	}

	r, out := newTestRunner(t, 3, false)
	require.NoError(t, r.Run(context.Background(), jobs))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	got := strings.Fields(string(data))
	sort.Strings(got)

	want := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	sort.Strings(want)
	require.Equal(t, want, got)

	// Progress lines are emitted in file order by the single launch goroutine.
	require.Contains(t, out.String(), "job: 1/8")
	require.Contains(t, out.String(), fmt.Sprintf("job: %d/%d", n, n))
}

func TestRunnerNeverExceedsParallelismBound(t *testing.T) {
	markerFile := filepath.Join(t.TempDir(), "markers")

	const (
		n = 6
		p = 2
	)

	jobs := make([]string, n)
	for i := range jobs {
		jobs[i] = fmt.Sprintf(
			"echo S >> %[1]s; sleep 0.25; echo E >> %[1]s",
			markerFile,
		)
	}

	r, _ := newTestRunner(t, p, false)
	require.NoError(t, r.Run(context.Background(), jobs))

	overlap := maxOverlap(t, markerFile)
	require.LessOrEqual(t, overlap, p, "running set exceeded the bound")
	require.Equal(t, p, overlap, "expected the bound to be fully used")
}

func TestRunnerSerializesWithParallelismOne(t *testing.T) {
	markerFile := filepath.Join(t.TempDir(), "markers")

	jobs := make([]string, 3)
	for i := range jobs {
		jobs[i] = fmt.Sprintf(
			"echo S >> %[1]s; sleep 0.1; echo E >> %[1]s",
			markerFile,
		)
	}

	r, _ := newTestRunner(t, 1, false)
	require.NoError(t, r.Run(context.Background(), jobs))

	require.Equal(t, 1, maxOverlap(t, markerFile), "jobs overlapped")
}

// Five sleeps with a bound of two run as three waves, so the batch completes
// in roughly three sleep durations rather than five.
func TestRunnerOverlapsJobsUpToBound(t *testing.T) {
	const sleep = 300 * time.Millisecond

	jobs := make([]string, 5)
	for i := range jobs {
		jobs[i] = "sleep 0.3"
	}

	r, _ := newTestRunner(t, 2, false)

	start := time.Now()
	require.NoError(t, r.Run(context.Background(), jobs))
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, 3*sleep)
	require.Less(t, elapsed, 5*sleep-sleep/2)
}

func TestRunnerAllJobsConcurrentWhenBoundCoversThem(t *testing.T) {
	markerFile := filepath.Join(t.TempDir(), "markers")

	const n = 4

	jobs := make([]string, n)
	for i := range jobs {
		jobs[i] = fmt.Sprintf(
			"echo S >> %[1]s; sleep 0.3; echo E >> %[1]s",
			markerFile,
		)
	}

	r, _ := newTestRunner(t, n, false)

	start := time.Now()
	require.NoError(t, r.Run(context.Background(), jobs))
	elapsed := time.Since(start)

	require.Equal(t, n, maxOverlap(t, markerFile))
	require.Less(t, elapsed, 4*300*time.Millisecond)
}

func TestRunnerAbsorbsJobFailures(t *testing.T) {
	r, out := newTestRunner(t, 1, false)

	err := r.Run(context.Background(), []string{"false"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "job: 1/1")
}

func TestRunnerReportsExitStatus(t *testing.T) {
	r, out := newTestRunner(t, 1, true)

	require.NoError(t, r.Run(context.Background(), []string{"exit 3"}))
	require.Contains(t, out.String(), "status 3")
}

func TestRunnerAbsorbsUnlaunchableJob(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "launched")

	r, out := newTestRunner(t, 1, false)

	// An all-whitespace command cannot be launched; the job after it must
	// still run.
	err := r.Run(context.Background(), []string{
		"   ",
		"echo survived >> " + outFile,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "command cannot be empty")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t, "survived", strings.TrimSpace(string(data)))
}

func TestRunnerCancellationForwardsSignalAndDrains(t *testing.T) {
	jobs := []string{"sleep 30", "sleep 30", "sleep 30"}

	r, out := newTestRunner(t, 2, false)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Run(ctx, jobs)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, context.Canceled)

	// The two running sleeps were SIGTERMed rather than waited on, and the
	// third was never launched.
	require.Less(t, elapsed, 10*time.Second)
	require.NotContains(t, out.String(), "job: 3/3")
}
