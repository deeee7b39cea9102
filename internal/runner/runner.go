// Package runner invokes the external tools the site tasks depend on.
//
// Every invocation is fail-fast: a non-zero exit is returned as an
// *ExitError carrying the tool's exit code so callers can propagate it
// unchanged to the invoking shell.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrEmptyCommand is returned when Run is called without a program name.
var ErrEmptyCommand = errors.New("empty command")

// Runner runs an external program to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExitError reports a non-zero exit from an external program.
type ExitError struct {
	// Command is the command line that failed.
	Command string

	// Code is the exit code of the program, or -1 if it was killed.
	Code int

	// Err is the underlying error from os/exec.
	Err error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Config configures an Exec runner.
type Config struct {
	// Stdout and Stderr receive the program's output.
	// Nil means os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Echo, when set, receives each command line before it runs.
	Echo io.Writer
}

// Exec runs programs with os/exec.
type Exec struct {
	config Config
}

// New creates an Exec runner.
func New(cfg Config) *Exec {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Exec{config: cfg}
}

// Run starts name with args and waits for it to exit.
func (r *Exec) Run(ctx context.Context, name string, args ...string) error {
	if name == "" {
		return ErrEmptyCommand
	}

	line := CommandLine(name, args...)
	if r.config.Echo != nil {
		fmt.Fprintf(r.config.Echo, "$ %s\n", line)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.config.Stdout
	cmd.Stderr = r.config.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: line, Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// CommandLine formats a command for display, quoting arguments that
// contain spaces or shell metacharacters.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\|&;<>()*?[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ExitCode extracts the exit code carried by err, if any.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
