package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/neurobatch/neuropipe/internal/log"
)

// tailBytes is how much captured tool output is attached to a stage failure.
const tailBytes = 512

// Runner executes the Stages of a pipeline in order, skipping stages whose
// outputs already exist so an interrupted run can be resumed.
type Runner struct {
	logger    *slog.Logger
	logDir    string
	overwrite bool
	dryRun    bool
}

// NewRunner creates a pipeline Runner. Tool output is written to per-stage
// log files under logDir, or discarded from disk when logDir is empty. When
// overwrite is set, stages run even if their outputs exist; when dryRun is
// set, commands are logged but not executed.
func NewRunner(
	logger *slog.Logger,
	logDir string,
	overwrite bool,
	dryRun bool,
) *Runner {
	return &Runner{
		logger:    logger,
		logDir:    logDir,
		overwrite: overwrite,
		dryRun:    dryRun,
	}
}

// Run executes stages in order under the given pipeline name. Unlike the
// independent jobs of a batch, pipeline stages feed each other, so the first
// stage failure aborts the run.
func (r *Runner) Run(ctx context.Context, name string, stages []Stage) error {
	ctx = log.ContextAttrs(
		ctx,
		slog.String("pipeline", name),
		slog.String("run_id", uuid.NewString()),
	)

	r.logger.InfoContext(ctx, "starting pipeline", "stages", len(stages))

	for _, stage := range stages {
		if !r.overwrite && stage.OutputsExist() {
			r.logger.InfoContext(
				ctx,
				"skipping stage, outputs exist",
				"stage", stage.Name,
			)

			continue
		}

		if r.dryRun {
			r.logger.InfoContext(
				ctx,
				"dry run",
				"stage", stage.Name,
				"cmd", stage.commandLine(),
			)

			continue
		}

		if err := r.runStage(ctx, stage); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
	}

	r.logger.InfoContext(ctx, "pipeline complete")

	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage) error {
	var logPath string

	if r.logDir != "" {
		if err := os.MkdirAll(r.logDir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}

		logPath = filepath.Join(r.logDir, stage.Name+".log")
	}

	output, err := newCapture(logPath)
	if err != nil {
		return err
	}
	defer output.Close()

	r.logger.InfoContext(
		ctx,
		"running stage",
		"stage", stage.Name,
		"cmd", stage.commandLine(),
	)

	cmd := exec.CommandContext(ctx, stage.Program, stage.Args...)
	cmd.Stdout = output
	cmd.Stderr = output

	start := time.Now()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"%s failed: %w (last output: %q)",
			stage.Program,
			err,
			output.Tail(tailBytes),
		)
	}

	// The existence checks double as a sanity check on the tool: exiting
	// zero without producing its outputs still fails the stage.
	for _, out := range stage.Outputs {
		if _, err := os.Stat(out); err != nil {
			return fmt.Errorf("expected output %s was not produced", out)
		}
	}

	r.logger.InfoContext(
		ctx,
		"stage complete",
		"stage", stage.Name,
		"duration", time.Since(start),
	)

	return nil
}
