package pipeline

import "strconv"

// FuncStages builds the functional preprocessing pipeline for a BOLD series:
// motion correction, and field-map-based unwarping when a prepared field map
// is supplied (empty fieldmap skips unwarping).
func FuncStages(cfg Config, bold string, fieldmap string, outDir string) []Stage {
	mcfBase := outPath(outDir, bold, "_mcf")
	mcf := mcfBase + ".nii.gz"

	stages := []Stage{
		{
			Name:    "mcflirt",
			Program: cfg.Tool("mcflirt"),
			Args: []string{
				"-in", bold,
				"-out", mcfBase,
				"-refvol", strconv.Itoa(cfg.Func.MotionRefVolume),
				"-plots",
			},
			Outputs: []string{mcf},
		},
	}

	if fieldmap != "" {
		unwarped := outPath(outDir, bold, "_mcf_unwarped.nii.gz")

		stages = append(stages, Stage{
			Name:    "fugue",
			Program: cfg.Tool("fugue"),
			Args: []string{
				"--in=" + mcf,
				"--loadfmap=" + fieldmap,
				"--dwell=" + strconv.FormatFloat(cfg.Func.DwellTime, 'f', -1, 64),
				"--unwarpdir=" + cfg.Func.UnwarpDir,
				"--unwarp=" + unwarped,
			},
			Outputs: []string{unwarped},
		})
	}

	return stages
}
