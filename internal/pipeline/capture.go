package pipeline

import (
	"fmt"
	"os"
	"sync"
)

// capture collects a tool's combined stdout/stderr, mirroring every write to
// a log file while keeping the bytes in memory so the tail can be attached
// to the error when the tool fails.
type capture struct {
	// NOTE: the buffer grows without bound, on the assumption that one tool
	// invocation's log output fits in memory comfortably.
	buffer []byte
	file   *os.File

	mu sync.Mutex
}

// newCapture creates a capture mirroring to logPath, or memory-only when
// logPath is empty.
func newCapture(logPath string) (*capture, error) {
	c := &capture{}

	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("create stage log: %w", err)
		}

		c.file = f
	}

	return c, nil
}

// Write implements io.Writer. The tool's stdout and stderr both point here,
// so writes can arrive from two pipe readers concurrently.
func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffer = append(c.buffer, p...)

	if c.file != nil {
		if _, err := c.file.Write(p); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

// Tail returns up to the last n bytes of captured output.
func (c *capture) Tail(n int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buffer) <= n {
		return string(c.buffer)
	}

	return string(c.buffer[len(c.buffer)-n:])
}

func (c *capture) Close() error {
	if c.file == nil {
		return nil
	}

	return c.file.Close()
}
