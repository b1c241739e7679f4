package pipeline

import (
	"path/filepath"
	"strconv"
	"strings"
)

// AnatStages builds the anatomical preprocessing pipeline for a T1-weighted
// image: brain extraction, optional bias-field correction, and linear (plus
// optionally nonlinear) registration to the configured standard-space
// template. Output paths are derived from the input image basename under
// outDir.
func AnatStages(cfg Config, t1 string, outDir string) []Stage {
	brain := outPath(outDir, t1, "_brain.nii.gz")

	stages := []Stage{
		{
			Name:    "bet",
			Program: cfg.Tool("bet"),
			Args: []string{
				t1,
				brain,
				"-f", strconv.FormatFloat(cfg.Anat.BetFrac, 'f', -1, 64),
				"-R",
			},
			Outputs: []string{brain},
		},
	}

	registrationInput := brain

	if cfg.Anat.BiasCorrect {
		restored := outPath(outDir, t1, "_brain_restore.nii.gz")

		stages = append(stages, Stage{
			Name:    "fast",
			Program: cfg.Tool("fast"),
			Args: []string{
				"-B",
				"-o", outPath(outDir, t1, "_brain"),
				brain,
			},
			Outputs: []string{restored},
		})

		registrationInput = restored
	}

	if cfg.Anat.Template != "" {
		std := outPath(outDir, t1, "_std.nii.gz")
		mat := outPath(outDir, t1, "_std.mat")

		stages = append(stages, Stage{
			Name:    "flirt",
			Program: cfg.Tool("flirt"),
			Args: []string{
				"-in", registrationInput,
				"-ref", cfg.Anat.Template,
				"-out", std,
				"-omat", mat,
			},
			Outputs: []string{std, mat},
		})

		if cfg.Anat.Nonlinear {
			warp := outPath(outDir, t1, "_warpcoef.nii.gz")

			stages = append(stages, Stage{
				Name:    "fnirt",
				Program: cfg.Tool("fnirt"),
				Args: []string{
					"--in=" + t1,
					"--ref=" + cfg.Anat.Template,
					"--aff=" + mat,
					"--cout=" + warp,
				},
				Outputs: []string{warp},
			})
		}
	}

	return stages
}

// niiBase strips the NIfTI extension from an image path.
func niiBase(image string) string {
	for _, ext := range []string{".nii.gz", ".nii"} {
		if strings.HasSuffix(image, ext) {
			return strings.TrimSuffix(image, ext)
		}
	}

	return image
}

// outPath computes an output path under outDir from the input image's
// basename and a suffix.
func outPath(outDir, image, suffix string) string {
	return filepath.Join(outDir, filepath.Base(niiBase(image))+suffix)
}
