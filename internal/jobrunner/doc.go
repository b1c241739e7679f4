// Package jobrunner runs a batch of independent shell commands as child
// processes with a fixed bound on how many may run at once.
//
// A Job represents a single command line executed to completion. A Runner
// reads Jobs from a job file, launches them in file order, and returns once
// every launched Job has exited. Individual Job failures do not abort the
// batch.
package jobrunner
