package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config holds the tool defaults shared by all pipelines. Zero values are
// filled in from DefaultConfig, so a config file only needs to name what it
// changes.
type Config struct {
	// FSLDir is the FSL installation root; tools are resolved as
	// <FSLDir>/bin/<tool>. When empty, tools are expected on PATH.
	FSLDir string `yaml:"fsl_dir"`

	Anat     AnatConfig     `yaml:"anat"`
	Func     FuncConfig     `yaml:"func"`
	Fieldmap FieldmapConfig `yaml:"fieldmap"`
}

type AnatConfig struct {
	// BetFrac is the fractional intensity threshold for brain extraction;
	// smaller values give larger brain estimates.
	BetFrac float64 `yaml:"bet_frac"`

	// BiasCorrect enables bias-field correction of the extracted brain.
	BiasCorrect bool `yaml:"bias_correct"`

	// Template is the standard-space image to register to. Registration is
	// skipped when empty.
	Template string `yaml:"template"`

	// Nonlinear enables nonlinear refinement of the linear registration.
	Nonlinear bool `yaml:"nonlinear"`
}

type FuncConfig struct {
	// MotionRefVolume selects the reference volume for motion correction.
	MotionRefVolume int `yaml:"motion_ref_volume"`

	// DwellTime is the effective EPI echo spacing in seconds, used for
	// field-map unwarping.
	DwellTime float64 `yaml:"dwell_time"`

	// UnwarpDir is the phase-encode direction for field-map unwarping:
	// one of x, x-, y, y-, z, z-.
	UnwarpDir string `yaml:"unwarp_dir"`
}

type FieldmapConfig struct {
	// DeltaTE is the echo time difference of the field-map acquisition in
	// milliseconds.
	DeltaTE float64 `yaml:"delta_te"`

	// Vendor selects the scanner phase convention understood by the
	// preparation tool.
	Vendor string `yaml:"vendor"`
}

var unwarpDirs = []string{"x", "x-", "y", "y-", "z", "z-"}

func DefaultConfig() Config {
	return Config{
		Anat: AnatConfig{
			BetFrac:     0.5,
			BiasCorrect: true,
		},
		Func: FuncConfig{
			MotionRefVolume: 0,
			DwellTime:       0.0005,
			UnwarpDir:       "y-",
		},
		Fieldmap: FieldmapConfig{
			DeltaTE: 2.46,
			Vendor:  "SIEMENS",
		},
	}
}

// LoadConfig decodes a YAML config from r on top of the defaults. Unknown
// fields are an error, so a typo'd option fails loudly instead of being
// silently ignored.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty config file keeps the defaults.
			return cfg, nil
		}

		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfigFile loads a YAML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}

func (c Config) validate() error {
	if c.FSLDir != "" {
		if _, err := os.Stat(c.FSLDir); err != nil {
			return fmt.Errorf("failed to stat fsl_dir: %w", err)
		}
	}

	if c.Anat.BetFrac <= 0 || c.Anat.BetFrac >= 1 {
		return fmt.Errorf(
			"bet_frac must be between 0 and 1 exclusive, got %g",
			c.Anat.BetFrac,
		)
	}

	if c.Func.MotionRefVolume < 0 {
		return errors.New("motion_ref_volume cannot be negative")
	}

	if c.Func.DwellTime <= 0 {
		return errors.New("dwell_time must be positive")
	}

	if !slices.Contains(unwarpDirs, c.Func.UnwarpDir) {
		return fmt.Errorf(
			"unwarp_dir must be one of %v, got %q",
			unwarpDirs,
			c.Func.UnwarpDir,
		)
	}

	if c.Fieldmap.DeltaTE <= 0 {
		return errors.New("delta_te must be positive")
	}

	return nil
}

// Tool returns the invocation path for the named external tool, honouring
// the configured FSL directory.
func (c Config) Tool(name string) string {
	if c.FSLDir == "" {
		return name
	}

	return filepath.Join(c.FSLDir, "bin", name)
}
