// Package shell runs toolchain commands in a subshell and captures their
// output for the pipeline.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrTimeout is returned when a command is killed by its context deadline.
// The partial Result captured up to that point is still returned.
var ErrTimeout = errors.New("command timed out")

// Command describes one subshell invocation.
type Command struct {
	// Line is passed verbatim to `sh -c`.
	Line string
	// Dir is the working directory for the subshell.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
	// MergeStderr redirects stderr into the stdout capture. The compile
	// stage wants one interleaved diagnostic stream; run and format keep
	// the streams separate.
	MergeStderr bool
}

// Result holds the captured output of a completed command.
type Result struct {
	// Stdout and Stderr are the captured streams split on newlines. A
	// trailing newline yields a trailing empty line, which callers keep:
	// the frontend terminal reproduces output byte-for-byte.
	Stdout []string
	Stderr []string
	// OK is true when the process exited with status zero. The specific
	// non-zero code never matters to callers, only the branch.
	OK bool
}

// Run executes cmd and waits for it to complete. A non-zero exit is not an
// error: it comes back as Result.OK == false. The error return is reserved
// for spawn failures (shell missing, fork failure) and for ErrTimeout, in
// which case the partial Result is also returned.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	log.Debug().Str("command", cmd.Line).Str("dir", cmd.Dir).Msg("running subshell command")

	c := exec.CommandContext(ctx, "/bin/sh", "-c", cmd.Line) // #nosec G204 -- command lines are built by the pipeline, never from request input
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	if cmd.MergeStderr {
		c.Stderr = &stdout
	} else {
		c.Stderr = &stderr
	}

	err := c.Run()

	res := &Result{
		Stdout: splitLines(stdout.String()),
		Stderr: splitLines(stderr.String()),
		OK:     err == nil,
	}

	if err == nil {
		return res, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		log.Warn().Str("command", cmd.Line).Msg("command killed by deadline")
		return res, ErrTimeout
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Debug().Int("exit_code", exitErr.ExitCode()).Msg("command exited non-zero")
		return res, nil
	}

	// The shell itself could not be started. This is an environment
	// problem, not a property of the submitted code.
	return nil, err
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}
