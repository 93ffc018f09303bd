// Package vm holds the development VM settings of a project and the Vagrant commands that act on it.
package vm

import (
	"context"

	"github.com/kxue43/appkit/gateway"
	"github.com/kxue43/appkit/options"
	"github.com/kxue43/appkit/ui"
)

type Settings struct {
	User   string
	Box    string
	CPUs   int
	Memory int
}

const (
	Provisioner = "vagrant"

	DefaultCPUs   = 2
	DefaultMemory = 2048
	DefaultUser   = "vagrant"
	DefaultBox    = "bento/ubuntu-24.04"
)

// FromContext applies the VM defaults where the effective context has no value.
func FromContext(ctx options.Context) Settings {
	return Settings{
		CPUs:   ctx.Int(options.KeyCPUs, DefaultCPUs),
		Memory: ctx.Int(options.KeyMemory, DefaultMemory),
		User:   ctx.String(options.KeyVMUser, DefaultUser),
		Box:    ctx.String(options.KeyVMBox, DefaultBox),
	}
}

func vagrant(root string, args ...string) gateway.Command {
	return gateway.Command{Name: Provisioner, Args: args, Dir: root}
}

func Up(ctx context.Context, r gateway.Runner, sink *ui.Sink, root string) error {
	return gateway.Require(ctx, r, sink, vagrant(root, "up"))
}

func Provision(ctx context.Context, r gateway.Runner, sink *ui.Sink, root string) error {
	return gateway.Require(ctx, r, sink, vagrant(root, "provision"))
}

// SSH forwards extra verbatim, e.g. `appkit ssh -c "make test"`.
func SSH(ctx context.Context, r gateway.Runner, sink *ui.Sink, root string, extra []string) error {
	return gateway.Require(ctx, r, sink, vagrant(root, append([]string{"ssh"}, extra...)...))
}
