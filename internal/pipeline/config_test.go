package pipeline_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neurobatch/neuropipe/internal/pipeline"
)

func TestLoadConfig(t *testing.T) {
	yml := `
anat:
  bet_frac: 0.35
  bias_correct: false
  template: /data/templates/MNI152_T1_2mm.nii.gz
  nonlinear: true
func:
  motion_ref_volume: 4
  dwell_time: 0.00058
  unwarp_dir: y
fieldmap:
  delta_te: 2.65
  vendor: SIEMENS
`
	cfg, err := pipeline.LoadConfig(strings.NewReader(yml))
	require.NoError(t, err)
	require.Equal(t, 0.35, cfg.Anat.BetFrac)
	require.False(t, cfg.Anat.BiasCorrect)
	require.Equal(t, "/data/templates/MNI152_T1_2mm.nii.gz", cfg.Anat.Template)
	require.True(t, cfg.Anat.Nonlinear)
	require.Equal(t, 4, cfg.Func.MotionRefVolume)
	require.Equal(t, 0.00058, cfg.Func.DwellTime)
	require.Equal(t, "y", cfg.Func.UnwarpDir)
	require.Equal(t, 2.65, cfg.Fieldmap.DeltaTE)
	require.Equal(t, "SIEMENS", cfg.Fieldmap.Vendor)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	// A partial config only overrides what it names.
	cfg, err := pipeline.LoadConfig(strings.NewReader("anat:\n  bet_frac: 0.3\n"))
	require.NoError(t, err)
	require.Equal(t, 0.3, cfg.Anat.BetFrac)
	require.True(t, cfg.Anat.BiasCorrect)
	require.Equal(t, 2.46, cfg.Fieldmap.DeltaTE)
	require.Equal(t, "SIEMENS", cfg.Fieldmap.Vendor)
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := pipeline.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, pipeline.DefaultConfig(), cfg)
}

func TestLoadConfigUnknownField(t *testing.T) {
	_, err := pipeline.LoadConfig(strings.NewReader("anat:\n  bet_fract: 0.3\n"))
	require.Error(t, err)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	for name, yml := range map[string]string{
		"bet_frac too large":  "anat:\n  bet_frac: 1.5\n",
		"bet_frac zero":       "anat:\n  bet_frac: 0\n",
		"negative ref volume": "func:\n  motion_ref_volume: -1\n",
		"bad unwarp dir":      "func:\n  unwarp_dir: up\n",
		"delta_te zero":       "fieldmap:\n  delta_te: 0\n",
		"missing fsl_dir":     "fsl_dir: /does/not/exist\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := pipeline.LoadConfig(strings.NewReader(yml))
			require.Error(t, err)
		})
	}
}

func TestToolResolution(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	require.Equal(t, "bet", cfg.Tool("bet"))

	cfg.FSLDir = "/usr/local/fsl"
	require.Equal(
		t,
		filepath.Join("/usr/local/fsl", "bin", "bet"),
		cfg.Tool("bet"),
	)
}
