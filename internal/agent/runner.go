// Package agent invokes the external coding-agent subprocess, captures
// its combined output to a per-loop log file, and runs the concurrent
// progress writer alongside it. It treats the agent as an opaque black
// box: the only things it interprets are the exit code and the raw byte
// stream, never the agent's semantic output.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrLaunchFailed wraps a failure to even start the subprocess — a
// fatal controller error, distinct from the agent running and exiting
// non-zero.
var ErrLaunchFailed = errors.New("agent: failed to launch subprocess")

// Options configure one invocation.
type Options struct {
	Command string
	Args    []string
	Prompt  string
	WorkDir string
	LogPath string
	Timeout time.Duration
}

// Result is one invocation's outcome.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
	TimedOut bool
	HadError bool
}

// Invoke runs the configured agent subprocess to completion, or until
// Timeout elapses, whichever comes first. It never returns an error for
// a plain non-zero exit — that is reported via Result.ExitCode and left
// for the caller (the Loop Controller) to fold into circuit-breaker
// bookkeeping. It only returns an error when the log file could not be
// created or the subprocess could not be started at all.
func Invoke(ctx context.Context, opts Options) (*Result, error) {
	logFile, err := os.Create(opts.LogPath)
	if err != nil {
		return nil, fmt.Errorf("agent: create log %s: %w", opts.LogPath, err)
	}
	defer logFile.Close()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, opts.Command, opts.Args...)
	cmd.Dir = opts.WorkDir
	cmd.Stdin = strings.NewReader(opts.Prompt)

	var buf syncBuffer
	cmd.Stdout = io.MultiWriter(logFile, &buf)
	cmd.Stderr = io.MultiWriter(logFile, &buf)

	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	// errgroup.WithContext only cancels its derived context when a grouped
	// function returns a non-nil error, so a clean cmd.Wait exit would
	// never stop the progress writer on its own. Cancel explicitly on
	// either outcome so the writer stops the moment the subprocess does,
	// instead of idling until runCtx's timeout fires.
	progressCtx, cancelProgress := context.WithCancel(runCtx)
	defer cancelProgress()

	var g errgroup.Group
	g.Go(func() error {
		defer cancelProgress()
		return cmd.Wait()
	})
	g.Go(func() error {
		return runProgressWriter(progressCtx, opts.WorkDir, startedAt, &buf)
	})

	waitErr := g.Wait()
	duration := time.Since(startedAt)

	exitCode := 0
	timedOut := false
	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case runCtx.Err() == context.DeadlineExceeded:
			timedOut = true
			exitCode = -1
		case errors.As(waitErr, &exitErr):
			exitCode = exitErr.ExitCode()
		default:
			exitCode = -1
		}
	}

	return &Result{
		Output:   buf.String(),
		ExitCode: exitCode,
		Duration: duration,
		TimedOut: timedOut,
		HadError: exitCode != 0,
	}, nil
}
