// Package apperr defines the error kinds, stable codes and exit statuses of appkit.
package apperr

import (
	"errors"
	"fmt"
	"io"
)

type (
	Code string

	Kind int

	// Error is the one error type the dispatcher knows how to report.
	Error struct {
		Cause  error
		Code   Code
		Msg    string
		Hint   string
		Kind   Kind
		Status int
	}
)

const (
	Internal Kind = iota
	UserInput
	ProjectState
	Environment
	ExternalTool
	Interrupted
)

const (
	EUsage         Code = "E_USAGE"
	ENotAProject   Code = "E_NOT_A_PROJECT"
	EAlreadyExists Code = "E_ALREADY_EXISTS"
	EConfigCorrupt Code = "E_CONFIG_CORRUPT"
	EEnvMissing    Code = "E_ENV_MISSING"
	EEnvInvalid    Code = "E_ENV_INVALID"
	EToolMissing   Code = "E_TOOL_MISSING"
	EToolFailed    Code = "E_TOOL_FAILED"
	EInterrupted   Code = "E_INTERRUPTED"
	EInternal      Code = "E_INTERNAL"
)

const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitUsage       = 64
	ExitToolMissing = 127
	ExitInterrupted = 130
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Msg, e.Cause.Error())
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint

	return e
}

func New(kind Kind, code Code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

func Wrap(kind Kind, code Code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, Cause: err}
}

func Usage(format string, args ...any) *Error {
	return New(UserInput, EUsage, fmt.Sprintf(format, args...))
}

func NotAProject(root string) *Error {
	return New(ProjectState, ENotAProject, fmt.Sprintf("%s is not an appkit project", root)).
		WithHint("run `appkit new <name>` first, or pass --root to point at an existing project")
}

func AlreadyExists(root string) *Error {
	return New(ProjectState, EAlreadyExists, fmt.Sprintf("an appkit project already exists at %s", root)).
		WithHint("run the command from outside the existing project or choose another --root")
}

func ConfigCorrupt(path string, err error) *Error {
	return Wrap(ProjectState, EConfigCorrupt, fmt.Sprintf("options document %s is corrupt", path), err).
		WithHint("fix or remove the file by hand; appkit does not repair it")
}

func EnvMissing(msg string) *Error {
	return New(Environment, EEnvMissing, msg)
}

func EnvInvalid(msg string, err error) *Error {
	return Wrap(Environment, EEnvInvalid, msg, err)
}

func ToolMissing(tool string) *Error {
	return New(ExternalTool, EToolMissing, fmt.Sprintf("%q was not found on PATH", tool))
}

// ToolFailed carries the child's exit status so it can be passed through.
func ToolFailed(tool string, status int) *Error {
	e := New(ExternalTool, EToolFailed, fmt.Sprintf("%q exited with status %d", tool, status))
	e.Status = status

	return e
}

func Interrupt() *Error {
	return New(Interrupted, EInterrupted, "interrupted")
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}

	return Internal
}

func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}

	return ""
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	e, ok := As(err)
	if !ok {
		return ExitGeneric
	}

	switch e.Kind {
	case UserInput:
		return ExitUsage
	case Interrupted:
		return ExitInterrupted
	case ExternalTool:
		if e.Code == EToolMissing {
			return ExitToolMissing
		}

		if e.Status > 0 {
			return e.Status
		}

		return ExitGeneric
	default:
		return ExitGeneric
	}
}

// Print writes the one-line message and, if present, the hint.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}

	e, ok := As(err)
	if !ok {
		_, _ = fmt.Fprintf(w, "error: %s\n", err.Error())

		return
	}

	msg := e.Msg
	if e.Cause != nil && e.Kind != UserInput {
		msg = msg + ": " + e.Cause.Error()
	}

	_, _ = fmt.Fprintf(w, "error: %s\n", msg)

	if e.Hint != "" {
		_, _ = fmt.Fprintf(w, "hint: %s\n", e.Hint)
	}
}
