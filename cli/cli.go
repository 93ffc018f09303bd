// Package cli is the appkit command surface: the kong grammar, one Run method per command, and the
// dispatcher that owns error reporting and exit codes.
package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/kxue43/appkit/credentials"
	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/tui"
	"github.com/kxue43/appkit/ui"
)

type (
	Globals struct {
		Color   bool `name:"color" negatable:"" default:"true" help:"Colorize output (default on when stdout is a terminal)."`
		Verbose bool `name:"verbose" short:"v" help:"Print debug logs to stderr."`
	}

	// CLI is the kong grammar.
	CLI struct {
		Globals

		New       NewCmd       `cmd:"" help:"Create a new AppKit application."`
		VM        VMCmd        `cmd:"" name:"vm" help:"Write or refresh the VM configuration of a project."`
		Sources   SourcesCmd   `cmd:"" help:"Print the package sources of a project."`
		Up        UpCmd        `cmd:"" help:"Start the project VM."`
		Provision ProvisionCmd `cmd:"" help:"Provision the project VM."`
		SSH       SSHCmd       `cmd:"" name:"ssh" help:"Connect to the project VM; extra arguments go to vagrant ssh."`
		Key       KeyCmd       `cmd:"" help:"Store the AppKit license key."`
		Profile   ProfileCmd   `cmd:"" help:"Write the deploy server profile of a stage."`
		Deploy    DeployCmd    `cmd:"" help:"Deploy the project with the configured deploy tool."`
		Config    ConfigCmd    `cmd:"" help:"Show or change the recorded project options."`
		Version   VersionCmd   `cmd:"" help:"Print the appkit version."`
		Help      HelpCmd      `cmd:"" help:"Show help for a command."`
	}

	// RootFlag is shared by every command that works on a project.
	RootFlag struct {
		Root string `name:"root" placeholder:"DIR" help:"Project root. Defaults to the current directory."`
	}

	// FormFunc asks the user for the options of a new project.
	FormFunc func(ctx context.Context, sink *ui.Sink, a tui.Answers) (tui.Answers, error)

	// Env is everything a command needs from the outside world. It is bound into every Run method.
	Env struct {
		Ctx         context.Context
		UI          *ui.Sink
		Runner      gateway.Runner
		Credentials *credentials.Chain
		HTTP        *http.Client
		Getwd       func() (string, error)
		Getenv      func(string) string
		Usage       func() error
		Form        FormFunc
		Executable  string
		Passthrough []string
	}

	// App holds the seams of one appkit process. The zero value of every field means "use the real
	// thing"; tests replace them.
	App struct {
		Runner      func(sink *ui.Sink) gateway.Runner
		Credentials func(sink *ui.Sink) *credentials.Chain
		HTTP        *http.Client
		Getwd       func() (string, error)
		Getenv      func(string) string
		Form        FormFunc
		Executable  string
	}
)

const (
	Name = "appkit"

	keyringUser = "license"
)

func runForm(ctx context.Context, sink *ui.Sink, a tui.Answers) (tui.Answers, error) {
	return tui.Run(ctx, sink.In(), sink.Out(), a, editions)
}

func (a *App) defaults() {
	if a.Runner == nil {
		a.Runner = func(sink *ui.Sink) gateway.Runner {
			return gateway.NewProcessRunner(sink)
		}
	}

	if a.Getenv == nil {
		a.Getenv = os.Getenv
	}

	if a.Getwd == nil {
		a.Getwd = os.Getwd
	}

	if a.Credentials == nil {
		getenv := a.Getenv
		a.Credentials = func(sink *ui.Sink) *credentials.Chain {
			return credentials.NewChain(
				credentials.NewKeyringStore(credentials.Service, keyringUser),
				credentials.FileStore{Path: credentials.DefaultFilePath(getenv("HOME"))},
				sink,
			)
		}
	}

	if a.HTTP == nil {
		a.HTTP = http.DefaultClient
	}

	if a.Form == nil {
		a.Form = runForm
	}

	if a.Executable == "" {
		a.Executable, _ = os.Executable()
	}
}
