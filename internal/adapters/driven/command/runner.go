// Package command runs the external programs used by optional decoders.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
)

// Ensure Runner implements the interface.
var _ driven.CommandRunner = (*Runner)(nil)

const (
	// maxStderr bounds the stderr text attached to an error.
	maxStderr = 512

	// waitDelay bounds how long output pipes are drained after a kill.
	waitDelay = time.Second
)

// Runner executes programs with os/exec. The process is killed when ctx ends.
type Runner struct{}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes name with args and returns its standard output.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	output, err := cmd.Output()
	if err == nil {
		return output, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s: %w: %w", name, domain.ErrTimeout, ctx.Err())
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if len(stderr) > maxStderr {
			stderr = stderr[:maxStderr]
		}
		if stderr != "" {
			return output, fmt.Errorf("%s exited with code %d: %s", name, exitErr.ExitCode(), stderr)
		}
	}
	return output, fmt.Errorf("%s: %w", name, err)
}

// LookPath resolves name on PATH.
func (r *Runner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
