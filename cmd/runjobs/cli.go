package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	// NOTE: The std lib flag package would be fine, but wanted consistent UX
	// with the neuropipe CLI without the overhead of cobra for a
	// two-argument tool, so using the pflag package.
	"github.com/spf13/pflag"

	"github.com/neurobatch/neuropipe/internal/jobrunner"
)

const usage = "usage: runjobs [flags] JOB_FILE PARALLELISM"

type config struct {
	jobFile     string
	parallelism int
	report      bool
}

func parseArgs(arguments []string) (*config, error) {
	cfg := &config{}

	flags := pflag.NewFlagSet("runjobs", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.BoolVar(
		&cfg.report,
		"report",
		false,
		"Print each job's pid and exit status as it completes",
	)

	if err := flags.Parse(arguments); err != nil {
		return nil, fmt.Errorf("%w\n%s", err, usage)
	}

	args := flags.Args()
	if len(args) != 2 {
		return nil, fmt.Errorf(
			"expected 2 arguments, got %d\n%s",
			len(args),
			usage,
		)
	}

	cfg.jobFile = args[0]

	parallelism, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("parallelism must be a number\n%s", usage)
	}

	if parallelism < 1 {
		return nil, errors.New("parallelism must be at least 1")
	}

	cfg.parallelism = parallelism

	return cfg, nil
}

func run(ctx context.Context, arguments []string) error {
	cfg, err := parseArgs(arguments)
	if err != nil {
		return err
	}

	jobs, err := jobrunner.ReadJobFile(cfg.jobFile)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(os.Stdout, "no jobs to run")

		return nil
	}

	runner, err := jobrunner.NewRunner(
		cfg.parallelism,
		os.Stdout,
		os.Stderr,
		cfg.report,
	)
	if err != nil {
		return err
	}

	return runner.Run(ctx, jobs)
}
