// Command runjobs executes each line of a job file as a shell command,
// keeping at most the requested number of jobs running at once.
//
// Usage:
//
//	runjobs [flags] JOB_FILE PARALLELISM
//
// Each non-empty line of JOB_FILE is one job. Jobs are launched in file
// order and their output is interleaved with the runner's own progress
// lines. A job failing does not affect the exit code; only a malformed
// invocation or an unreadable job file does.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		os.Interrupt,
	)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
