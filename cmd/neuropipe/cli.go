package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neurobatch/neuropipe/internal/log"
	"github.com/neurobatch/neuropipe/internal/pipeline"
)

// TODO: Inject version at build time.
const version = "0.0.1"

type flags struct {
	configPath string
	fslDir     string
	overwrite  bool
	dryRun     bool
	verbose    bool
}

type cli struct {
	cfg    pipeline.Config
	logger *slog.Logger
}

func newCLI() *cli {
	return &cli{}
}

func (c *cli) rootCmd() *cobra.Command {
	f := &flags{}

	command := &cobra.Command{
		Use:          "neuropipe",
		Short:        "Preprocessing pipelines for anatomical and functional MRI data",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = log.New(f.verbose)

			cfg := pipeline.DefaultConfig()

			if f.configPath != "" {
				var err error

				cfg, err = pipeline.LoadConfigFile(f.configPath)
				if err != nil {
					return err
				}
			}

			if f.fslDir != "" {
				cfg.FSLDir = f.fslDir
			}

			c.cfg = cfg

			return nil
		},
	}

	command.AddCommand(
		c.anatCmd(f),
		c.funcCmd(f),
		c.fieldmapCmd(f),
	)

	command.CompletionOptions.HiddenDefaultCmd = true

	command.PersistentFlags().StringVar(
		&f.configPath,
		"config",
		"",
		"Path to YAML config with pipeline defaults",
	)

	command.PersistentFlags().StringVar(
		&f.fslDir,
		"fsl-dir",
		"",
		"FSL installation root, overrides the config file",
	)

	command.PersistentFlags().BoolVar(
		&f.overwrite,
		"overwrite",
		false,
		"Re-run stages even if their outputs already exist",
	)

	command.PersistentFlags().BoolVar(
		&f.dryRun,
		"dry-run",
		false,
		"Log stage commands without executing them",
	)

	command.PersistentFlags().BoolVar(
		&f.verbose,
		"verbose",
		false,
		"Enable debug logs",
	)

	return command
}

func (c *cli) anatCmd(f *flags) *cobra.Command {
	var t1, outDir string

	command := &cobra.Command{
		Use:     "anat [flags]",
		Short:   "Run anatomical preprocessing on a T1-weighted image",
		Example: "  neuropipe anat --t1 sub-01/T1w.nii.gz --out sub-01/anat",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(
				cmd,
				f,
				"anat",
				outDir,
				pipeline.AnatStages(c.cfg, t1, outDir),
			)
		},
	}

	command.Flags().StringVar(&t1, "t1", "", "Path to T1-weighted input image")
	command.Flags().StringVar(&outDir, "out", "", "Output directory")
	command.MarkFlagRequired("t1")
	command.MarkFlagRequired("out")

	return command
}

func (c *cli) funcCmd(f *flags) *cobra.Command {
	var bold, fieldmap, outDir string

	command := &cobra.Command{
		Use:     "func [flags]",
		Short:   "Run functional preprocessing on a BOLD series",
		Example: "  neuropipe func --bold sub-01/bold.nii.gz --out sub-01/func",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(
				cmd,
				f,
				"func",
				outDir,
				pipeline.FuncStages(c.cfg, bold, fieldmap, outDir),
			)
		},
	}

	command.Flags().StringVar(&bold, "bold", "", "Path to BOLD input series")
	command.Flags().StringVar(
		&fieldmap,
		"fieldmap",
		"",
		"Path to prepared field map for unwarping (optional)",
	)
	command.Flags().StringVar(&outDir, "out", "", "Output directory")
	command.MarkFlagRequired("bold")
	command.MarkFlagRequired("out")

	return command
}

func (c *cli) fieldmapCmd(f *flags) *cobra.Command {
	var magnitude, phase, outDir string

	command := &cobra.Command{
		Use:     "fieldmap [flags]",
		Short:   "Construct a field map from magnitude and phase images",
		Example: "  neuropipe fieldmap --mag mag.nii.gz --phase phasediff.nii.gz --out sub-01/fmap",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(
				cmd,
				f,
				"fieldmap",
				outDir,
				pipeline.FieldmapStages(c.cfg, magnitude, phase, outDir),
			)
		},
	}

	command.Flags().StringVar(&magnitude, "mag", "", "Path to magnitude image")
	command.Flags().StringVar(&phase, "phase", "", "Path to phase-difference image")
	command.Flags().StringVar(&outDir, "out", "", "Output directory")
	command.MarkFlagRequired("mag")
	command.MarkFlagRequired("phase")
	command.MarkFlagRequired("out")

	return command
}

func (c *cli) runPipeline(
	cmd *cobra.Command,
	f *flags,
	name string,
	outDir string,
	stages []pipeline.Stage,
) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	runner := pipeline.NewRunner(
		c.logger,
		filepath.Join(outDir, "logs"),
		f.overwrite,
		f.dryRun,
	)

	return runner.Run(cmd.Context(), name, stages)
}
