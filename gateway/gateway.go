// Package gateway runs external tools (git, vagrant, the deploy tool, man, extension commands)
// as opaque child processes. Only presence on PATH and the exit status are observed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/ui"
)

type (
	Command struct {
		Env  map[string]string
		Name string
		Dir  string
		Args []string
	}

	// Runner is the seam between appkit and the outside world. Run returns the child's exit
	// status; the error is reserved for failures to start or wait for the child.
	Runner interface {
		LookPath(name string) (string, error)
		Run(ctx context.Context, cmd Command) (int, error)
	}

	// ProcessRunner starts real processes that share the given standard streams.
	ProcessRunner struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

const ExtensionPrefix = "appkit-"

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

func NewProcessRunner(sink *ui.Sink) *ProcessRunner {
	return &ProcessRunner{Stdin: sink.In(), Stdout: sink.Out(), Stderr: sink.Err()}
}

func (r *ProcessRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (r *ProcessRunner) Run(ctx context.Context, c Command) (int, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)

	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Dir = c.Dir

	if len(c.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, apperr.Interrupt()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return -1, fmt.Errorf("failed to run %q: %w", c.Name, err)
	}

	return 0, nil
}

// Require runs a tool the operation cannot do without.
func Require(ctx context.Context, r Runner, sink *ui.Sink, c Command) error {
	path, err := r.LookPath(c.Name)
	if err != nil {
		return apperr.ToolMissing(c.Name)
	}

	c.Name = path

	return run(ctx, r, sink, c)
}

// Optional runs a tool whose absence only degrades the result. It reports whether the tool ran.
// A tool that is present but fails is still an error.
func Optional(ctx context.Context, r Runner, sink *ui.Sink, c Command) (bool, error) {
	path, err := r.LookPath(c.Name)
	if err != nil {
		sink.Warn("%s was not found on PATH; skipping `%s`", c.Name, c.String())

		return false, nil
	}

	c.Name = path

	return true, run(ctx, r, sink, c)
}

func run(ctx context.Context, r Runner, sink *ui.Sink, c Command) error {
	sink.Debug("running external command", zap.String("cmd", c.String()), zap.String("dir", c.Dir))

	status, err := r.Run(ctx, c)
	if err != nil {
		return err
	}

	if status != 0 {
		return apperr.ToolFailed(c.Name, status)
	}

	return nil
}

// FindExtension looks up the executable that implements an unknown subcommand.
func FindExtension(r Runner, command string) (string, bool) {
	if command == "" || strings.ContainsAny(command, `/\`) {
		return "", false
	}

	path, err := r.LookPath(ExtensionPrefix + command)
	if err != nil {
		return "", false
	}

	return path, true
}
