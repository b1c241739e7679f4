package pipeline

import (
	"os"
	"strings"
)

// Stage is one external tool invocation together with the output files the
// tool is expected to produce.
type Stage struct {
	Name    string
	Program string
	Args    []string

	// Outputs are the files that must exist after the stage has run. A stage
	// whose outputs all exist already is skipped on re-run unless the run is
	// an overwrite.
	Outputs []string
}

// OutputsExist reports whether every expected output file exists. A stage
// with no declared outputs is never considered done.
func (s Stage) OutputsExist() bool {
	if len(s.Outputs) == 0 {
		return false
	}

	for _, out := range s.Outputs {
		if _, err := os.Stat(out); err != nil {
			return false
		}
	}

	return true
}

func (s Stage) commandLine() string {
	return s.Program + " " + strings.Join(s.Args, " ")
}
