package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/kxue43/appkit/apperr"
	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/ui"
)

type (
	// exitRequest is how kong's help flag unwinds out of parsing.
	exitRequest int

	// scanResult is what the dispatcher learns from the raw arguments before kong sees them.
	scanResult struct {
		command     string
		index       int
		passthrough int
		builtin     bool
		verbose     bool
		noColor     bool
	}

	// flagSet maps a flag token to whether it consumes the following token.
	flagSet map[string]bool
)

const (
	passthroughCommand = "ssh"

	supportMessage = `appkit crashed unexpectedly: %v
This is a bug. Please report it at https://github.com/kxue43/appkit/issues together with the
command you ran and the output of the same command with --verbose.
`
)

// Run executes one invocation with the real environment and returns the exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var a App

	return a.Run(ctx, args, stdin, stdout, stderr)
}

func newParser(grammar *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(
		grammar,
		kong.Name(Name),
		kong.Description("Scaffold, run and deploy AppKit applications."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exitRequest(code)) }),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
}

// Run executes one invocation and returns the exit code. Errors are reported here and nowhere else.
func (a *App) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	a.defaults()

	sink := ui.New(ui.Config{In: stdin, Out: stdout, Err: stderr})

	defer func() {
		v := recover()
		if v == nil {
			return
		}

		if req, ok := v.(exitRequest); ok {
			code = int(req)

			return
		}

		_, _ = fmt.Fprintf(stderr, supportMessage, v)

		sink.Logger().Error("unhandled panic", zap.Any("value", v), zap.Strings("args", args))
		sink.Sync()

		panic(v)
	}()

	var grammar CLI

	parser, err := newParser(&grammar, stdout, stderr)
	if err != nil {
		return a.report(sink, apperr.Wrap(apperr.Internal, apperr.EInternal, "invalid command grammar", err))
	}

	scan := scanArgs(parser.Model, args)

	sink = ui.New(ui.Config{In: stdin, Out: stdout, Err: stderr, Color: !scan.noColor, Verbose: scan.verbose})

	env := &Env{
		Ctx:         ctx,
		UI:          sink,
		Runner:      a.Runner(sink),
		Credentials: a.Credentials(sink),
		HTTP:        a.HTTP,
		Getwd:       a.Getwd,
		Getenv:      a.Getenv,
		Form:        a.Form,
		Executable:  a.Executable,
		Usage: func() error {
			kctx, err := kong.Trace(parser, nil)
			if err != nil {
				return fmt.Errorf("failed to build usage: %w", err)
			}

			return kctx.PrintUsage(false)
		},
	}

	err = dispatch(env, parser, scan, args)
	if err != nil && ctx.Err() != nil {
		err = apperr.Interrupt()
	}

	return a.report(sink, err)
}

func (a *App) report(sink *ui.Sink, err error) int {
	defer sink.Sync()

	if err == nil {
		return apperr.ExitOK
	}

	sink.Debug("invocation failed", zap.Error(err))
	apperr.Print(sink.Err(), err)

	return apperr.ExitCode(err)
}

func dispatch(env *Env, parser *kong.Kong, scan scanResult, args []string) error {
	if scan.command != "" && !scan.builtin {
		return delegate(env, scan.command, args[scan.index+1:])
	}

	if scan.passthrough >= 0 {
		env.Passthrough = args[scan.passthrough:]
		args = args[:scan.passthrough]
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return apperr.Usage("%s", err.Error()).WithHint("run `appkit help` to see the available commands and flags")
	}

	env.UI.Debug("dispatching", zap.String("command", kctx.Command()), zap.Strings("passthrough", env.Passthrough))

	return kctx.Run(env)
}

// delegate hands an unknown command to an appkit-<command> executable on PATH.
func delegate(env *Env, command string, rest []string) error {
	if _, ok := gateway.FindExtension(env.Runner, command); !ok {
		return apperr.Usage("unknown command %q", command).WithHint("run `appkit help` to see the available commands")
	}

	return gateway.Require(env.Ctx, env.Runner, env.UI, gateway.Command{
		Name: gateway.ExtensionPrefix + command,
		Args: rest,
	})
}

func newFlagSet(groups ...[]*kong.Flag) flagSet {
	fs := flagSet{"-h": false, "--help": false}

	for _, group := range groups {
		for _, f := range group {
			value := !f.IsBool()

			fs["--"+f.Name] = value

			if f.IsBool() {
				fs["--no-"+f.Name] = false
			}

			if f.Short != 0 {
				fs["-"+string(f.Short)] = value
			}
		}
	}

	return fs
}

func (fs flagSet) lookup(tok string) (known, takesValue bool) {
	name, _, inline := strings.Cut(tok, "=")

	value, ok := fs[name]

	return ok, ok && value && !inline
}

func (r *scanResult) note(tok string) {
	switch tok {
	case "-v", "--verbose":
		r.verbose = true
	case "--no-color":
		r.noColor = true
	case "--color":
		r.noColor = false
	}
}

func findCommand(app *kong.Application, name string) *kong.Node {
	for _, n := range app.Children {
		if n.Type == kong.CommandNode && (n.Name == name || slices.Contains(n.Aliases, name)) {
			return n
		}
	}

	return nil
}

// scanArgs finds the command word, and for the passthrough command the first token appkit does not
// recognize. Everything from that token on is forwarded verbatim.
func scanArgs(app *kong.Application, args []string) scanResult {
	res := scanResult{index: -1, passthrough: -1}
	globals := newFlagSet(app.Flags)

	i := 0
	for ; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			return res
		}

		if !strings.HasPrefix(tok, "-") || tok == "-" {
			break
		}

		res.note(tok)

		if _, takesValue := globals.lookup(tok); takesValue {
			i++
		}
	}

	if i >= len(args) {
		return res
	}

	res.command, res.index = args[i], i

	node := findCommand(app, res.command)
	res.builtin = node != nil

	if node == nil || node.Name != passthroughCommand {
		return res
	}

	known := newFlagSet(app.Flags, node.Flags)

	for j := i + 1; j < len(args); j++ {
		ok, takesValue := known.lookup(args[j])
		if !ok {
			res.passthrough = j

			break
		}

		res.note(args[j])

		if takesValue {
			j++
		}
	}

	return res
}
