package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
)

const (
	DefaultMaxOutput = 1 << 20 // 1 MB per stream
	DefaultWaitDelay = 2 * time.Second

	notFoundExitCode = 127
)

// CommandRunner executes one external command per call and always reports
// the outcome as a CommandResult, including timeouts and start failures.
type CommandRunner struct {
	MaxOutput int
	WaitDelay time.Duration
	Logger    logrus.FieldLogger
}

func NewCommandRunner(logger logrus.FieldLogger) *CommandRunner {
	return &CommandRunner{
		MaxOutput: DefaultMaxOutput,
		WaitDelay: DefaultWaitDelay,
		Logger:    logger,
	}
}

// Run executes cmd with the current environment. A timeout <= 0 disables the
// per-call deadline; ctx still applies.
func (r *CommandRunner) Run(ctx context.Context, cmd domain.Command, timeout time.Duration) domain.CommandResult {
	result := domain.CommandResult{Command: cmd}
	started := time.Now()

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	setupProcessGroup(c)
	c.Cancel = func() error { return killProcess(c) }
	c.WaitDelay = r.waitDelay()

	var stdout, stderr bytes.Buffer
	stdoutW := &limitWriter{buf: &stdout, limit: r.maxOutput()}
	stderrW := &limitWriter{buf: &stderr, limit: r.maxOutput()}
	c.Stdout = stdoutW
	c.Stderr = stderrW

	err := c.Run()
	result.Duration = time.Since(started)
	result.Truncated = stdoutW.truncated || stderrW.truncated

	switch {
	case err == nil:
		result.ExitCode = 0
		result.Stdout = stdout.String()
		result.Stderr = stderr.String()

	case ctx.Err() != nil:
		result.ExitCode = domain.InterruptedExitCode
		result.Stderr = fmt.Sprintf("Command interrupted: %s", cmd)

	case timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = domain.TimeoutExitCode
		result.Stderr = fmt.Sprintf("Timeout expired for command: %s", cmd)
		result.TimedOut = true

	default:
		result.Stdout = stdout.String()
		result.Stderr = stderr.String()
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case c.ProcessState != nil:
			// The process exited but its output was still held open, e.g.
			// by a background child, until WaitDelay expired.
			result.ExitCode = c.ProcessState.ExitCode()
			result.Stderr = appendError(result.Stderr, err)
		case errors.Is(err, exec.ErrNotFound):
			result.ExitCode = notFoundExitCode
			result.Stderr = err.Error()
		default:
			result.ExitCode = -1
			result.Stderr = appendError(result.Stderr, err)
		}
	}

	r.trace(result)
	return result
}

func appendError(stderr string, err error) string {
	if stderr == "" || strings.HasSuffix(stderr, "\n") {
		return stderr + err.Error()
	}
	return stderr + "\n" + err.Error()
}

func (r *CommandRunner) trace(result domain.CommandResult) {
	if r.Logger == nil {
		return
	}
	r.Logger.WithFields(logrus.Fields{
		"command":   result.Command.String(),
		"exit_code": result.ExitCode,
		"duration":  result.Duration.Round(time.Millisecond),
		"timed_out": result.TimedOut,
		"truncated": result.Truncated,
	}).Debug("command finished")
}

func (r *CommandRunner) maxOutput() int {
	if r.MaxOutput > 0 {
		return r.MaxOutput
	}
	return DefaultMaxOutput
}

func (r *CommandRunner) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return DefaultWaitDelay
}

// limitWriter writes up to limit bytes to buf, then silently discards the
// rest and records that it did.
type limitWriter struct {
	buf       *bytes.Buffer
	limit     int
	truncated bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		// Report everything as consumed so the copy goroutine keeps draining.
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
