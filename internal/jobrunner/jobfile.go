package jobrunner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadJobFile reads the job file at path and returns one command line per
// non-empty line, in file order. Lines containing only whitespace are
// ignored. The path is resolved to an absolute path before opening so that
// progress output and errors name the file unambiguously.
func ReadJobFile(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve job file path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open job file: %w", err)
	}
	defer f.Close()

	var jobs []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		jobs = append(jobs, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	return jobs, nil
}
