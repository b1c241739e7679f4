package pipeline

import "strconv"

// FieldmapStages builds the field-map construction pipeline from a magnitude
// and a phase-difference image: magnitude brain extraction followed by
// field-map preparation in radians per second.
func FieldmapStages(cfg Config, magnitude string, phase string, outDir string) []Stage {
	magBrain := outPath(outDir, magnitude, "_brain.nii.gz")
	fmap := outPath(outDir, phase, "_fmap.nii.gz")

	return []Stage{
		{
			Name:    "bet-mag",
			Program: cfg.Tool("bet"),
			Args:    []string{magnitude, magBrain},
			Outputs: []string{magBrain},
		},
		{
			Name:    "prepare-fieldmap",
			Program: cfg.Tool("fsl_prepare_fieldmap"),
			Args: []string{
				cfg.Fieldmap.Vendor,
				phase,
				magBrain,
				fmap,
				strconv.FormatFloat(cfg.Fieldmap.DeltaTE, 'f', -1, 64),
			},
			Outputs: []string{fmap},
		},
	}
}
