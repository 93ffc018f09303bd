// Package ui is the output sink of one invocation: user-facing messages on stdout/stderr,
// an optional interactive pause, and a debug logger that is silent unless --verbose is set.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kxue43/appkit/apperr"
)

type (
	Sink struct {
		in     io.Reader
		out    io.Writer
		errOut io.Writer
		logger *zap.Logger
		styles styles
		mux    sync.Mutex
		color  bool
	}

	Config struct {
		In      io.Reader
		Out     io.Writer
		Err     io.Writer
		Color   bool
		Verbose bool
	}

	styles struct {
		success lipgloss.Style
		warn    lipgloss.Style
		err     lipgloss.Style
		emph    lipgloss.Style
	}
)

var palette = struct {
	green   lipgloss.Color
	yellow  lipgloss.Color
	red     lipgloss.Color
	magenta lipgloss.Color
}{
	green:   lipgloss.Color("42"),
	yellow:  lipgloss.Color("184"),
	red:     lipgloss.Color("196"),
	magenta: lipgloss.Color("212"),
}

// IsTerminal reports whether w is a terminal; color is only used for terminals.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func New(cfg Config) *Sink {
	s := Sink{in: cfg.In, out: cfg.Out, errOut: cfg.Err}

	if s.in == nil {
		s.in = os.Stdin
	}

	if s.out == nil {
		s.out = os.Stdout
	}

	if s.errOut == nil {
		s.errOut = os.Stderr
	}

	s.color = cfg.Color && IsTerminal(s.out)
	s.styles = newStyles(s.color)
	s.logger = newLogger(s.errOut, cfg.Verbose)

	return &s
}

// Discard is a sink for tests and for code paths that must stay quiet.
func Discard() *Sink {
	return New(Config{In: eofReader{}, Out: io.Discard, Err: io.Discard})
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()

		return styles{success: plain, warn: plain, err: plain, emph: plain}
	}

	return styles{
		success: lipgloss.NewStyle().Foreground(palette.green),
		warn:    lipgloss.NewStyle().Foreground(palette.yellow),
		err:     lipgloss.NewStyle().Foreground(palette.red).Bold(true),
		emph:    lipgloss.NewStyle().Foreground(palette.magenta),
	}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zap.DebugLevel)

	return zap.New(core).Named("appkit")
}

func (s *Sink) In() io.Reader {
	return s.in
}

func (s *Sink) Out() io.Writer {
	return s.out
}

func (s *Sink) Err() io.Writer {
	return s.errOut
}

func (s *Sink) Color() bool {
	return s.color
}

func (s *Sink) Logger() *zap.Logger {
	return s.logger
}

func (s *Sink) Debug(msg string, fields ...zap.Field) {
	s.logger.Debug(msg, fields...)
}

func (s *Sink) write(w io.Writer, style lipgloss.Style, prefix, format string, args ...any) {
	s.mux.Lock()
	defer s.mux.Unlock()

	line := fmt.Sprintf(format, args...)
	if prefix != "" {
		line = style.Render(prefix) + " " + line
	}

	_, _ = fmt.Fprintln(w, line)
}

func (s *Sink) Say(format string, args ...any) {
	s.write(s.out, s.styles.emph, "", format, args...)
}

func (s *Sink) Success(format string, args ...any) {
	s.write(s.out, s.styles.success, "✓", format, args...)
}

func (s *Sink) Warn(format string, args ...any) {
	s.write(s.errOut, s.styles.warn, "warning:", format, args...)
}

func (s *Sink) Error(format string, args ...any) {
	s.write(s.errOut, s.styles.err, "error:", format, args...)
}

// Emph renders text in the accent color when color is enabled.
func (s *Sink) Emph(text string) string {
	return s.styles.emph.Render(text)
}

// Pause prints prompt and blocks until a line is read or ctx is cancelled. There is no timeout.
func (s *Sink) Pause(ctx context.Context, prompt string) error {
	s.mux.Lock()
	_, err := io.WriteString(s.out, prompt)
	s.mux.Unlock()

	if err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}

	read := make(chan error, 1)

	go func() {
		_, err := bufio.NewReader(s.in).ReadString('\n')
		read <- err
	}()

	select {
	case <-ctx.Done():
		_, _ = io.WriteString(s.out, "\n")

		return apperr.Interrupt()
	case err = <-read:
	}

	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read confirmation from input: %w", err)
	}

	return nil
}

func (s *Sink) Sync() {
	_ = s.logger.Sync()
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
